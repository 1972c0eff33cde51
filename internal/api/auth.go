package api

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/browser"
)

const (
	DefaultAuthorizeEndpoint = "https://unsplash.com/oauth/authorize"
	DefaultTokenEndpoint     = "https://unsplash.com/oauth/token"

	// NativeRedirectPath is the only redirect path an authorization code is
	// accepted from.
	NativeRedirectPath = "/oauth/authorize/native"

	authorizeTimeout = 5 * time.Minute
)

// Credentials is the process-wide OAuth application configuration, loaded once
// at startup. Empty endpoint fields fall back to the Unsplash defaults.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthorizeEndpoint string
	TokenEndpoint     string
}

// AuthFlow builds the pieces of the authorization-code flow: the authorize
// URL the user visits, the token-exchange request, and the extraction of the
// code from the redirect URL.
type AuthFlow struct {
	creds Credentials
}

func NewAuthFlow(creds Credentials) *AuthFlow {
	if creds.AuthorizeEndpoint == "" {
		creds.AuthorizeEndpoint = DefaultAuthorizeEndpoint
	}
	if creds.TokenEndpoint == "" {
		creds.TokenEndpoint = DefaultTokenEndpoint
	}
	return &AuthFlow{creds: creds}
}

// AuthorizationURL builds the authorize endpoint URL carrying client_id,
// redirect_uri, response_type=code and the configured scopes joined by "+".
func (f *AuthFlow) AuthorizationURL() (*url.URL, error) {
	u, err := url.Parse(f.creds.AuthorizeEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("authorize endpoint %q is not a valid URL", f.creds.AuthorizeEndpoint)}
	}
	q := url.Values{}
	q.Set("client_id", f.creds.ClientID)
	q.Set("redirect_uri", f.creds.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(f.creds.Scopes, " "))
	u.RawQuery = q.Encode()
	return u, nil
}

// TokenExchangeRequest builds the POST that trades an authorization code for
// an access token.
func (f *AuthFlow) TokenExchangeRequest(code string) (*Request, error) {
	u, err := url.Parse(f.creds.TokenEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("token endpoint %q is not a valid URL", f.creds.TokenEndpoint)}
	}
	q := url.Values{}
	q.Set("client_id", f.creds.ClientID)
	q.Set("client_secret", f.creds.ClientSecret)
	q.Set("redirect_uri", f.creds.RedirectURI)
	q.Set("code", code)
	q.Set("grant_type", "authorization_code")
	u.RawQuery = q.Encode()
	return &Request{
		Method:  http.MethodPost,
		URL:     u,
		Timeout: DefaultTimeout,
	}, nil
}

// ExtractCode returns the code query parameter of a redirect URL, but only
// when the URL's path is exactly NativeRedirectPath. Any other path, a
// malformed URL, or a missing code parameter yields ok=false.
func (f *AuthFlow) ExtractCode(redirectURL string) (string, bool) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path != NativeRedirectPath {
		return "", false
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", false
	}
	return code, true
}

// AuthorizeBrowser opens the authorize URL in the user's browser and runs a
// local callback server on the redirect URI's host until the browser is
// redirected back with an authorization code.
func (f *AuthFlow) AuthorizeBrowser(ctx context.Context) (string, error) {
	authURL, err := f.AuthorizationURL()
	if err != nil {
		return "", err
	}

	redirect, err := url.Parse(f.creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return "", &ConfigurationError{Reason: fmt.Sprintf("redirect URI %q is not a valid URL", f.creds.RedirectURI)}
	}

	fmt.Printf("Opening browser for authentication...\n")
	fmt.Printf("If the browser doesn't open, visit: %s\n", authURL)

	if err := browser.OpenURL(authURL.String()); err != nil {
		fmt.Printf("Failed to open browser automatically: %v\n", err)
		fmt.Printf("Please manually open the URL above\n")
	}

	return f.waitForCallback(ctx, redirect.Host)
}

func (f *AuthFlow) waitForCallback(ctx context.Context, addr string) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if errorParam := r.URL.Query().Get("error"); errorParam != "" {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Unsplash CLI - Authentication Failed</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; margin-top: 50px; }
        .failure { color: red; font-size: 24px; }
        .message { color: #666; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="failure">Authentication Failed</div>
    <div class="message">%s - you can close this window and retry from your terminal.</div>
</body>
</html>`, html.EscapeString(errorParam))

				errChan <- fmt.Errorf("OAuth error: %s", errorParam)
				return
			}

			code, ok := f.ExtractCode(r.URL.String())
			if !ok {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>Unsplash CLI - Authentication Success</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; margin-top: 50px; }
        .success { color: green; font-size: 24px; }
        .message { color: #666; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="success">Authentication Successful!</div>
    <div class="message">You can now close this window and return to your terminal.</div>
</body>
</html>`)

			codeChan <- code
		}),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	select {
	case code := <-codeChan:
		server.Shutdown(ctx)
		return code, nil
	case err := <-errChan:
		server.Shutdown(ctx)
		return "", err
	case <-time.After(authorizeTimeout):
		server.Shutdown(ctx)
		return "", fmt.Errorf("authentication timeout after %v", authorizeTimeout)
	case <-ctx.Done():
		server.Shutdown(ctx)
		return "", ctx.Err()
	}
}
