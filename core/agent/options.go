package agent

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds a full backend turn, transcription and reply
// generation included.
const DefaultTimeout = 60 * time.Second

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Timeout and transport
// are then the caller's responsibility.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every backend call. Ignored when a custom HTTP client is
// supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func otelTransport() http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
			return operationName + " " + request.URL.Path
		}),
	)
}
