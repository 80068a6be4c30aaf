package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/ghnav/cli/internal/logger"
)

// Authorizer drives the interactive part of the OAuth flow: it presents the
// authorization URL to the user and yields the final redirect URL exactly
// once, or an error. Implementations must not resolve twice.
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (redirectURL string, err error)
}

const authorizedPage = `<!DOCTYPE html>
<html><head><title>ghnav</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4em;">
<h2>Authorization complete</h2>
<p>You can close this window and return to the terminal.</p>
</body></html>`

// BrowserAuthorizer opens the system browser and captures the OAuth
// redirect on a loopback listener. The listen address must match the
// redirect URI registered with the OAuth app.
type BrowserAuthorizer struct {
	// ListenAddr is the loopback address to bind, e.g. "127.0.0.1:8917".
	ListenAddr string
	// CallbackPath is the redirect path, e.g. "/callback".
	CallbackPath string
	// OpenURL launches the user's browser. Defaults to the platform opener.
	OpenURL func(url string) error
}

// Authorize binds the loopback listener, opens the browser, and waits for
// the single redirect hit. The callback-style HTTP handler is folded into
// one blocking call that resolves exactly once.
func (b *BrowserAuthorizer) Authorize(ctx context.Context, authURL string) (string, error) {
	listener, err := net.Listen("tcp", b.ListenAddr)
	if err != nil {
		return "", NewAuthError(CodeBrowserAuthUnavailable,
			fmt.Sprintf("cannot listen on %s for the OAuth redirect", b.ListenAddr))
	}
	defer listener.Close()

	resultCh := make(chan string, 1)
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(b.CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			resultCh <- "http://" + r.Host + r.URL.String()
		})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, authorizedPage)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer server.Close()

	open := b.OpenURL
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		logger.Warn("Could not open browser automatically: %v", err)
		fmt.Printf("Open this URL in your browser to continue:\n\n  %s\n\n", authURL)
	}

	select {
	case redirectURL := <-resultCh:
		if redirectURL == "" {
			return "", NewAuthError(CodeNoResponseURL, "no response URL received from the authorization flow")
		}
		return redirectURL, nil
	case err := <-serveErr:
		return "", &AuthError{Code: CodeOAuthFlow, Message: "OAuth redirect listener failed", Err: err}
	case <-ctx.Done():
		return "", &AuthError{Code: CodeOAuthFlow, Message: "OAuth flow cancelled", Err: ctx.Err()}
	}
}

// openBrowser launches the default browser for the current platform.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
