// Package apptracker reports unexpected errors, such as handler panics or failed refreshes, to an error
// tracking service.
package apptracker

type AppTracker interface {
	CaptureMessage(message string)
	CaptureException(exception error)
}
