package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ErrExchangeInFlight is returned when an exchange for the same code is
// already running. The duplicate call performs no network activity; callers
// treat it as a no-op.
var ErrExchangeInFlight = errors.New("token exchange for this code already in flight")

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	CreatedAt   int64  `json:"created_at"`
}

// OAuthClient exchanges an authorization code for an access token. Exchanges
// are single-flight per code: a duplicate call while the same code is being
// exchanged is dropped instead of firing a second request. Failures are not
// retried; retry means the user attempts a fresh login.
type OAuthClient struct {
	flow *AuthFlow
	http *Client
	log  *logrus.Entry

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewOAuthClient(flow *AuthFlow, httpClient *Client) *OAuthClient {
	return &OAuthClient{
		flow:     flow,
		http:     httpClient,
		log:      logrus.WithField("component", "oauth"),
		inFlight: make(map[string]struct{}),
	}
}

// ExchangeCode trades code for a bearer token.
func (o *OAuthClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	o.mu.Lock()
	if _, dup := o.inFlight[code]; dup {
		o.mu.Unlock()
		o.log.WithField("code", code).Debug("duplicate exchange ignored")
		return nil, ErrExchangeInFlight
	}
	o.inFlight[code] = struct{}{}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inFlight, code)
		o.mu.Unlock()
	}()

	req, err := o.flow.TokenExchangeRequest(code)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := o.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &DecodeError{Err: errors.New("token response carries no access_token")}
	}

	o.log.Debug("authorization code exchanged")
	return &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		Expiry:      time.Time{}, // Unsplash tokens do not expire
	}, nil
}
