package api_test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unsplash-cli/internal/api"
)

func testCredentials() api.Credentials {
	return api.Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://127.0.0.1:8890/oauth/authorize/native",
		Scopes:       []string{"public", "read_user", "write_likes"},
	}
}

func TestAuthorizationURL(t *testing.T) {
	flow := api.NewAuthFlow(testCredentials())

	u, err := flow.AuthorizationURL()
	require.NoError(t, err)

	assert.Equal(t, "unsplash.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)

	query := u.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8890/oauth/authorize/native", query.Get("redirect_uri"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "public read_user write_likes", query.Get("scope"))

	// Scopes are joined with "+" on the wire.
	assert.Contains(t, u.RawQuery, "scope=public+read_user+write_likes")
}

func TestAuthorizationURL_MalformedEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "unparseable", endpoint: "://unsplash.com/oauth/authorize"},
		{name: "no scheme", endpoint: "unsplash.com/oauth/authorize"},
		{name: "no host", endpoint: "https:///oauth/authorize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := testCredentials()
			creds.AuthorizeEndpoint = tt.endpoint
			flow := api.NewAuthFlow(creds)

			u, err := flow.AuthorizationURL()

			assert.Nil(t, u)
			var confErr *api.ConfigurationError
			assert.ErrorAs(t, err, &confErr)
		})
	}
}

func TestTokenExchangeRequest(t *testing.T) {
	flow := api.NewAuthFlow(testCredentials())

	req, err := flow.TokenExchangeRequest("auth-code")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "unsplash.com", req.URL.Host)
	assert.Equal(t, "/oauth/token", req.URL.Path)

	query := req.URL.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "client-secret", query.Get("client_secret"))
	assert.Equal(t, "http://127.0.0.1:8890/oauth/authorize/native", query.Get("redirect_uri"))
	assert.Equal(t, "auth-code", query.Get("code"))
	assert.Equal(t, "authorization_code", query.Get("grant_type"))
}

func TestTokenExchangeRequest_MalformedEndpoint(t *testing.T) {
	creds := testCredentials()
	creds.TokenEndpoint = "not a url"
	flow := api.NewAuthFlow(creds)

	req, err := flow.TokenExchangeRequest("auth-code")

	assert.Nil(t, req)
	var confErr *api.ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestExtractCode(t *testing.T) {
	flow := api.NewAuthFlow(testCredentials())

	tests := []struct {
		name     string
		url      string
		wantCode string
		wantOK   bool
	}{
		{
			name:     "native redirect path",
			url:      "https://unsplash.com/oauth/authorize/native?code=lastCode",
			wantCode: "lastCode",
			wantOK:   true,
		},
		{
			name:     "local redirect",
			url:      "http://127.0.0.1:8890/oauth/authorize/native?code=abc123&state=x",
			wantCode: "abc123",
			wantOK:   true,
		},
		{
			name:   "other path",
			url:    "https://unsplash.com/other?code=x",
			wantOK: false,
		},
		{
			name:   "path prefix only",
			url:    "https://unsplash.com/oauth/authorize?code=x",
			wantOK: false,
		},
		{
			name:   "missing code",
			url:    "https://unsplash.com/oauth/authorize/native?error=denied",
			wantOK: false,
		},
		{
			name:   "malformed url",
			url:    "://oauth/authorize/native?code=x",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := flow.ExtractCode(tt.url)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

// hitCallback polls the local callback server until it is listening and
// returns the response to the given redirect.
func hitCallback(t *testing.T, redirectURL string) *http.Response {
	t.Helper()
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get(redirectURL)
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 50*time.Millisecond)
	return resp
}

func TestAuthorizeBrowser_CapturesCode(t *testing.T) {
	creds := testCredentials()
	creds.RedirectURI = "http://127.0.0.1:18923/oauth/authorize/native"
	flow := api.NewAuthFlow(creds)

	done := make(chan struct {
		code string
		err  error
	}, 1)
	go func() {
		code, err := flow.AuthorizeBrowser(context.Background())
		done <- struct {
			code string
			err  error
		}{code, err}
	}()

	resp := hitCallback(t, creds.RedirectURI+"?code=abc123")
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Authentication Successful")

	select {
	case result := <-done:
		require.NoError(t, result.err)
		assert.Equal(t, "abc123", result.code)
	case <-time.After(5 * time.Second):
		t.Fatal("authorize flow never returned")
	}
}

func TestAuthorizeBrowser_ErrorRedirectShowsFailurePage(t *testing.T) {
	creds := testCredentials()
	creds.RedirectURI = "http://127.0.0.1:18924/oauth/authorize/native"
	flow := api.NewAuthFlow(creds)

	done := make(chan error, 1)
	go func() {
		_, err := flow.AuthorizeBrowser(context.Background())
		done <- err
	}()

	resp := hitCallback(t, creds.RedirectURI+"?error=access_denied")
	defer resp.Body.Close()

	// The browser must not be left with an empty page.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Authentication Failed")
	assert.Contains(t, string(body), "access_denied")

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "access_denied")
	case <-time.After(5 * time.Second):
		t.Fatal("authorize flow never returned")
	}
}

// The query encoding used by AuthorizationURL must keep the redirect URI
// round-trippable.
func TestAuthorizationURL_RedirectURIRoundTrip(t *testing.T) {
	flow := api.NewAuthFlow(testCredentials())

	u, err := flow.AuthorizationURL()
	require.NoError(t, err)

	redirect, err := url.Parse(u.Query().Get("redirect_uri"))
	require.NoError(t, err)
	assert.Equal(t, api.NativeRedirectPath, redirect.Path)
}
