package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// We need these variables to be able to mock sentry.CaptureMessage and sentry.CaptureException in tests since
// package level functions cannot be mocked
var (
	captureMessageFunc   = sentry.CaptureMessage
	captureExceptionFunc = sentry.CaptureException
	InitFunc             = sentry.Init
	FlushFunc            = sentry.Flush
	RecoverFunc          = sentry.Recover
)

type Options struct {
	DSN         string
	Environment string
	Release     string
	// FlushFrequency is how long, in seconds, buffered events may take to be sent on Flush.
	FlushFrequency int
}

type sentryTracker struct {
	flushTimeout time.Duration
}

func (s *sentryTracker) CaptureMessage(message string) {
	captureMessageFunc(message)
}

func (s *sentryTracker) CaptureException(exception error) {
	captureExceptionFunc(exception)
}

// Flush waits for buffered events to be sent, up to the configured flush frequency.
func (s *sentryTracker) Flush() bool {
	return FlushFunc(s.flushTimeout)
}

func NewSentryTracker(opts Options) (*sentryTracker, error) {
	if err := InitFunc(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
	}); err != nil {
		return nil, fmt.Errorf("unable to initialize sentry: %w", err)
	}

	tracker := &sentryTracker{flushTimeout: time.Second * time.Duration(opts.FlushFrequency)}
	defer tracker.Flush()
	defer RecoverFunc()
	return tracker, nil
}
