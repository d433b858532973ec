package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type SchemaRefreshServiceMock struct {
	mock.Mock
}

var _ SchemaRefreshService = (*SchemaRefreshServiceMock)(nil)

func (m *SchemaRefreshServiceMock) WarmStart(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *SchemaRefreshServiceMock) RefreshAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *SchemaRefreshServiceMock) Run(ctx context.Context, interval time.Duration) {
	m.Called(ctx, interval)
}

// NewSchemaRefreshServiceMock creates a new instance of SchemaRefreshServiceMock. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks expectations.
func NewSchemaRefreshServiceMock(t interface {
	mock.TestingT
	Cleanup(func())
},
) *SchemaRefreshServiceMock {
	m := &SchemaRefreshServiceMock{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

type RequestSplitServiceMock struct {
	mock.Mock
}

var _ RequestSplitService = (*RequestSplitServiceMock)(nil)

func (m *RequestSplitServiceMock) Plan(ctx context.Context, request string) (*SplitPlan, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SplitPlan), args.Error(1)
}

func (m *RequestSplitServiceMock) Project(ctx context.Context, backend, request string) (*Projection, error) {
	args := m.Called(ctx, backend, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Projection), args.Error(1)
}

// NewRequestSplitServiceMock creates a new instance of RequestSplitServiceMock. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewRequestSplitServiceMock(t interface {
	mock.TestingT
	Cleanup(func())
},
) *RequestSplitServiceMock {
	m := &RequestSplitServiceMock{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
