package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/playermanager/internal/api/apierr"
	"github.com/mcoot/playermanager/internal/middleware"
)

// Logging logs every API request with the "api" component tag
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With("component", "api"))
}

// Recovery answers panics with the JSON internal error body. Event
// streams and websocket upgrades that already started are left alone.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger.With("component", "api"), func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
