package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Request describes one outbound call. It is transient: build one per call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is sent as JSON. Form, when set, takes precedence and is sent form-encoded.
	Body any
	Form url.Values

	// Protected requests are never sent without a credential.
	Protected bool

	// Anonymous requests never carry a credential and never trigger a refresh (login, register).
	Anonymous bool

	// retried marks that a refresh-and-retry already happened for this request.
	retried bool
}

// Get builds a GET request
func Get(path string, protected bool) *Request {
	return &Request{Method: "GET", Path: path, Protected: protected}
}

// Post builds a POST request with a JSON body
func Post(path string, body any, protected bool) *Request {
	return &Request{Method: "POST", Path: path, Body: body, Protected: protected}
}

// Put builds a PUT request with a JSON body
func Put(path string, body any, protected bool) *Request {
	return &Request{Method: "PUT", Path: path, Body: body, Protected: protected}
}

// Delete builds a DELETE request
func Delete(path string, protected bool) *Request {
	return &Request{Method: "DELETE", Path: path, Protected: protected}
}

// WithQuery sets the query string and returns the request
func (r *Request) WithQuery(q url.Values) *Request {
	r.Query = q
	return r
}

// Retried reports whether a refresh-and-retry was already attempted
func (r *Request) Retried() bool {
	return r.retried
}

// url joins the request path onto baseURL
func (r *Request) url(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// body encodes the payload. It is called once per attempt so retries resend the full body.
func (r *Request) body() (io.Reader, string, error) {
	if r.Form != nil {
		return strings.NewReader(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	}
	if r.Body == nil {
		return nil, "", nil
	}

	jsonData, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(jsonData), "application/json", nil
}
