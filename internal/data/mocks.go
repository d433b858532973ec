package data

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type SchemaSnapshotStoreMock struct {
	mock.Mock
}

var _ SchemaSnapshotStore = (*SchemaSnapshotStoreMock)(nil)

func (m *SchemaSnapshotStoreMock) Upsert(ctx context.Context, backend string, document []byte, fetchedAt time.Time) error {
	args := m.Called(ctx, backend, document, fetchedAt)
	return args.Error(0)
}

func (m *SchemaSnapshotStoreMock) Get(ctx context.Context, backend string) (*SchemaSnapshot, error) {
	args := m.Called(ctx, backend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SchemaSnapshot), args.Error(1)
}

func (m *SchemaSnapshotStoreMock) GetAll(ctx context.Context) ([]SchemaSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SchemaSnapshot), args.Error(1)
}

// NewSchemaSnapshotStoreMock creates a new instance of SchemaSnapshotStoreMock. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewSchemaSnapshotStoreMock(t interface {
	mock.TestingT
	Cleanup(func())
},
) *SchemaSnapshotStoreMock {
	m := &SchemaSnapshotStoreMock{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

