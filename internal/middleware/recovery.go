package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/cashflow-ledger/internal/handler"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

// Recovery turns a panicking handler into a 500. A panic with
// http.ErrAbortHandler is re-raised so the server drops the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}
			logging.FromContext(r.Context()).Error("panic recovered",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
