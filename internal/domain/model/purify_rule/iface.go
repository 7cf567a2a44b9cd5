package model

import (
	"context"
	"net/http"
)

// FetchRequest describes one HTTP exchange made by redirect and visit rules.
type FetchRequest struct {
	URL             string
	Method          string // HEAD for redirect, GET for visit
	Header          http.Header
	FollowRedirects bool
	ReadBody        bool
}

// FetchResponse is what the rules need back from the exchange.
type FetchResponse struct {
	StatusCode int
	Header     http.Header
	URL        string // final effective URL
	Body       string
}

// IsRedirect reports a 3xx carrying a Location header.
func (r *FetchResponse) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400 && r.Header.Get("Location") != ""
}

// Fetcher performs HTTP requests on behalf of redirect and visit rules.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req FetchRequest) (*FetchResponse, error)

func (f FetcherFunc) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	return f(ctx, req)
}
