package unsplash

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"unsplash-cli/internal/api"
)

// ProfileClient fetches the logged-in user's profile and avatar URL. It is
// independent of the feed; both only need an authenticated api.Client.
type ProfileClient struct {
	http   *api.Client
	scheme string
	host   string
}

// NewProfileClient creates a profile client. apiEndpoint overrides the
// Unsplash API base URL and is set only in tests.
func NewProfileClient(httpClient *api.Client, apiEndpoint string) *ProfileClient {
	scheme, host := DefaultScheme, DefaultHost
	if apiEndpoint != "" {
		u, err := url.Parse(apiEndpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			panic(fmt.Sprintf("unsplash: malformed API endpoint %q", apiEndpoint))
		}
		scheme, host = u.Scheme, u.Host
	}
	return &ProfileClient{http: httpClient, scheme: scheme, host: host}
}

// FetchProfile fetches the profile of the currently authenticated user.
func (p *ProfileClient) FetchProfile(ctx context.Context) (*Profile, error) {
	req := api.Build(http.MethodGet, p.scheme, p.host, "/me", nil)

	var result profileResult
	if err := p.http.DoJSON(ctx, req, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	profile := result.toProfile()
	return &profile, nil
}

// FetchAvatarURL fetches the public user record of username and returns the
// large avatar variant.
func (p *ProfileClient) FetchAvatarURL(ctx context.Context, username string) (*url.URL, error) {
	req := api.Build(http.MethodGet, p.scheme, p.host, "/users/"+username, nil)

	var result userResult
	if err := p.http.DoJSON(ctx, req, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", username, err)
	}
	if result.ProfileImage.Large == "" {
		return nil, &api.DecodeError{Err: errors.New("user record carries no large profile image")}
	}
	avatar, err := url.Parse(result.ProfileImage.Large)
	if err != nil {
		return nil, &api.DecodeError{Err: err}
	}
	return avatar, nil
}
