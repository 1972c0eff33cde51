package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const maxConnsPerHost = 10

// TokenProvider supplies the bearer token attached to outgoing requests.
// A provider returning ok=false leaves the request unauthenticated.
type TokenProvider interface {
	BearerToken() (token string, ok bool)
}

// Client executes Requests and classifies every outcome as success or exactly
// one of TransportError, StatusError, DecodeError.
//
// A Client built with WithSupersede cancels its previous in-flight call
// whenever a new one starts (last request wins). Clients without it simply run
// calls independently; callers that need at-most-one-in-flight enforce their
// own guard.
type Client struct {
	rc     *resty.Client
	tokens TokenProvider
	log    *logrus.Entry

	supersede bool

	mu     sync.Mutex
	calls  uint64
	callID uint64
	cancel context.CancelFunc
}

type ClientOption func(*Client)

// WithTokenProvider makes the client attach a bearer Authorization header to
// every request, when a token is available.
func WithTokenProvider(tp TokenProvider) ClientOption {
	return func(c *Client) { c.tokens = tp }
}

// WithSupersede enables cancel-the-previous-in-flight-call behavior.
func WithSupersede() ClientOption {
	return func(c *Client) { c.supersede = true }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		log: logrus.WithField("component", "api"),
	}
	c.rc = resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     maxConnsPerHost,
			MaxIdleConnsPerHost: maxConnsPerHost,
		},
	})
	c.rc.SetHeader("Accept-Version", "v1")
	c.rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if c.tokens != nil {
			if token, ok := c.tokens.BearerToken(); ok {
				r.SetAuthToken(token)
			}
		}
		return nil
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes req and returns the raw response body.
func (c *Client) Do(ctx context.Context, req *Request) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	if c.supersede {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		c.calls++
		id := c.calls
		c.callID = id
		c.cancel = cancel
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			if c.callID == id {
				c.cancel = nil
			}
			c.mu.Unlock()
			cancel()
		}()
	} else {
		defer cancel()
	}

	c.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("executing request")

	resp, err := c.rc.R().SetContext(ctx).Execute(req.Method, req.URL.String())
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, &StatusError{Code: code}
	}
	return resp.Body(), nil
}

// DoJSON executes req and decodes the JSON response body into out.
func (c *Client) DoJSON(ctx context.Context, req *Request, out interface{}) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
