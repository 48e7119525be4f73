package connectutil

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const defaultIdleTimeout = 2 * time.Minute

// H2CHandler serves handler over HTTP/1.1 and cleartext HTTP/2, so Connect
// and gRPC clients can reach the service without TLS.
func H2CHandler(handler http.Handler) http.Handler {
	return h2c.NewHandler(handler, &http2.Server{
		MaxConcurrentStreams: 100,
		MaxReadFrameSize:     1 << 20,
		IdleTimeout:          defaultIdleTimeout,
	})
}
