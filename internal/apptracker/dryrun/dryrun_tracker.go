package dryrun

import (
	"github.com/stellar/go-stellar-sdk/support/log"
)

// DryRunTracker only logs what would have been reported. It is used when no tracker DSN is configured.
type DryRunTracker struct{}

func (d *DryRunTracker) CaptureMessage(message string) {
	log.Warnf("app tracker message: %s", message)
}

func (d *DryRunTracker) CaptureException(exception error) {
	log.Errorf("app tracker exception: %v", exception)
}
