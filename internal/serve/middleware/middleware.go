package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/serve/httperror"
)

// MaxBodySize bounds request bodies; GraphQL documents larger than this are rejected.
const MaxBodySize int64 = 1 << 20

// RecoverHandler turns panics into 500 responses and reports them to the app tracker.
func RecoverHandler(appTracker apptracker.AppTracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				// http.ErrAbortHandler is how handlers abort a response on purpose.
				if r == http.ErrAbortHandler { //nolint:errorlint // comparing the recovered value
					panic(r)
				}

				ctx := req.Context()
				var err error
				if e, ok := r.(error); ok {
					err = fmt.Errorf("panic: %w", e)
				} else {
					err = errors.New(fmt.Sprint("panic: ", r))
				}

				log.Ctx(ctx).Errorf("%v\n%s", err, debug.Stack())
				httperror.InternalServerError(ctx, "", err, nil, appTracker).Render(rw)
			}()

			next.ServeHTTP(rw, req)
		})
	}
}

// LimitBody caps the size of request bodies.
func LimitBody(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if req.Body != nil {
				req.Body = http.MaxBytesReader(rw, req.Body, maxBytes)
			}
			next.ServeHTTP(rw, req)
		})
	}
}
