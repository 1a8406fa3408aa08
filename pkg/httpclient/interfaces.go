package httpclient

import "context"

// Response is a minimal HTTP response contract. The body is fully read and the
// underlying connection released before a Response is handed out.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
