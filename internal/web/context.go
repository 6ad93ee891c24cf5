package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/csvconvert/internal/core"
)

// WithRequestMetadata adds the client IP to ctx so it is stored with the run.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	// RemoteAddr is already resolved by TrustedRealIP.
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}
