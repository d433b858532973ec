package introspection

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// FetcherMock is a mock implementation of the Fetcher interface
type FetcherMock struct {
	mock.Mock
}

var _ Fetcher = (*FetcherMock)(nil)

func (f *FetcherMock) Fetch(ctx context.Context) ([]byte, error) {
	args := f.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// NewFetcherMock creates a new instance of FetcherMock. It also registers a testing interface on the mock and a
// cleanup function to assert the mocks expectations.
func NewFetcherMock(t interface {
	mock.TestingT
	Cleanup(func())
},
) *FetcherMock {
	m := &FetcherMock{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
