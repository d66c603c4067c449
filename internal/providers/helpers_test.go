package providers

import (
	"net/http"
	"testing"
	"time"
)

// fastRetries shortens the retry backoff for the duration of a test.
func fastRetries(t *testing.T) {
	t.Helper()
	prev := baseBackoff
	baseBackoff = time.Millisecond
	t.Cleanup(func() { baseBackoff = prev })
}

// rewriteTransport rewrites all request URLs to point at the test server.
type rewriteTransport struct {
	base    http.RoundTripper
	baseURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	req.URL.Host = t.baseURL[len("http://"):]
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func rewriteClient(serverURL string) *http.Client {
	return &http.Client{Transport: &rewriteTransport{baseURL: serverURL}}
}
