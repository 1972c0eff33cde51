package api

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Request is a fully-formed API request waiting to be executed by a Client.
type Request struct {
	Method  string
	URL     *url.URL
	Timeout time.Duration
}

// Build assembles a Request from its parts. The parts come from static
// configuration, so a combination that cannot form a valid URL is a programmer
// error and panics rather than returning an error.
func Build(method, scheme, host, path string, query url.Values) *Request {
	if scheme == "" || host == "" {
		panic(fmt.Sprintf("api: malformed request configuration: scheme=%q host=%q", scheme, host))
	}
	u := &url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	if _, err := http.NewRequest(method, u.String(), nil); err != nil {
		panic(fmt.Sprintf("api: malformed request configuration: %v", err))
	}
	return &Request{
		Method:  method,
		URL:     u,
		Timeout: DefaultTimeout,
	}
}

// FromURL wraps an already-parsed absolute URL, for endpoints that are not
// assembled from static parts (e.g. image URLs returned by the server).
func FromURL(method string, u *url.URL) *Request {
	return &Request{
		Method:  method,
		URL:     u,
		Timeout: DefaultTimeout,
	}
}
