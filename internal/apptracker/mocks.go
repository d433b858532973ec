package apptracker

import (
	"github.com/stretchr/testify/mock"
)

// MockAppTracker records what would have been reported to the error tracker.
type MockAppTracker struct {
	mock.Mock
}

var _ AppTracker = (*MockAppTracker)(nil)

func (m *MockAppTracker) CaptureMessage(message string) {
	m.Called(message)
}

func (m *MockAppTracker) CaptureException(exception error) {
	m.Called(exception)
}

// NewMockAppTracker creates a new instance of MockAppTracker. It also registers a testing interface on the mock and a
// cleanup function to assert the mocks expectations.
func NewMockAppTracker(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAppTracker {
	m := &MockAppTracker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
