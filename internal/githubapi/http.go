package githubapi

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ghnav/cli/internal/logger"
	"github.com/ghnav/cli/internal/version"
)

// HTTPClientConfig configures the HTTP client behavior.
type HTTPClientConfig struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// DefaultHTTPConfig returns the default HTTP client configuration.
func DefaultHTTPConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:        30 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// NewHTTPClient creates an HTTP client with standard configuration.
func NewHTTPClient() *http.Client {
	return NewHTTPClientWithConfig(DefaultHTTPConfig())
}

// NewHTTPClientWithConfig creates an HTTP client with custom configuration.
func NewHTTPClientWithConfig(cfg HTTPClientConfig) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &instrumentedTransport{
			Transport: transport,
		},
	}
}

// instrumentedTransport adds the User-Agent header and debug logging for
// every outbound request.
type instrumentedTransport struct {
	Transport http.RoundTripper
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "ghnav/"+version.Version)

	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	if resp != nil {
		logger.Debug("HTTP %s %s → %d (%v)", req.Method, sanitizeURL(req.URL.String()), resp.StatusCode, duration)
	} else if err != nil {
		logger.Debug("HTTP %s %s → ERROR: %v (%v)", req.Method, sanitizeURL(req.URL.String()), err, duration)
	}

	return resp, err
}

// sanitizeURL strips sensitive query parameters before logging.
func sanitizeURL(url string) string {
	for _, param := range []string{"access_token", "client_secret", "code", "state"} {
		if i := strings.Index(url, param+"="); i >= 0 {
			end := strings.IndexByte(url[i:], '&')
			if end < 0 {
				url = url[:i] + param + "=[REDACTED]"
			} else {
				url = url[:i] + param + "=[REDACTED]" + url[i+end:]
			}
		}
	}
	return url
}
