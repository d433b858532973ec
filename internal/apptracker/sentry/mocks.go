package sentry

import (
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/mock"
)

// sentryHooksMock stands in for the package level sentry functions the tracker calls.
type sentryHooksMock struct {
	mock.Mock
}

func (m *sentryHooksMock) CaptureMessage(message string) *sentry.EventID {
	args := m.Called(message)
	return args.Get(0).(*sentry.EventID)
}

func (m *sentryHooksMock) CaptureException(exception error) *sentry.EventID {
	args := m.Called(exception)
	return args.Get(0).(*sentry.EventID)
}

func (m *sentryHooksMock) Init(options sentry.ClientOptions) error {
	args := m.Called(options)
	return args.Error(0)
}

func (m *sentryHooksMock) Flush(timeout time.Duration) bool {
	args := m.Called(timeout)
	return args.Bool(0)
}

func (m *sentryHooksMock) Recover() *sentry.EventID {
	args := m.Called()
	return args.Get(0).(*sentry.EventID)
}

// replaceHook points hook at fn until the test ends.
func replaceHook[F any](t *testing.T, hook *F, fn F) {
	t.Helper()
	original := *hook
	*hook = fn
	t.Cleanup(func() { *hook = original })
}

// newSentryHooksMock routes every sentry hook to a mock. The flush and recover deferred by NewSentryTracker are
// expected once, set withTracker to false when the tracker is never built.
func newSentryHooksMock(t *testing.T, withTracker bool) *sentryHooksMock {
	t.Helper()

	m := &sentryHooksMock{}
	m.Test(t)
	if withTracker {
		m.
			On("Flush", mock.Anything).Return(true).Once().
			On("Recover").Return((*sentry.EventID)(nil)).Once()
	}

	replaceHook(t, &InitFunc, m.Init)
	replaceHook(t, &FlushFunc, m.Flush)
	replaceHook(t, &RecoverFunc, m.Recover)
	replaceHook(t, &captureMessageFunc, m.CaptureMessage)
	replaceHook(t, &captureExceptionFunc, m.CaptureException)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
