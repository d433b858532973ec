package utils

import (
	"context"
	"io"

	"github.com/stellar/go-stellar-sdk/support/log"
)

// DeferredClose closes the resource and logs errMsg with the close error when it fails. Meant for defer statements
// where the close error has nowhere else to go, like response bodies and connection pools.
func DeferredClose(ctx context.Context, closer io.Closer, errMsg string) {
	err := closer.Close()
	if err == nil {
		return
	}
	if errMsg == "" {
		errMsg = "closing resource"
	}
	log.Ctx(ctx).Errorf("%s: %v", errMsg, err)
}
