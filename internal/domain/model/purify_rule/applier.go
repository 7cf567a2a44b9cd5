package model

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ApplyResult is the outcome of one rule application.
type ApplyResult struct {
	URL       *url.URL
	Continue  bool
	Increment Statistics
}

// Applier runs a single rule against a URL.
type Applier struct {
	Caps    Capabilities
	Fetcher Fetcher
}

// NewApplier returns an Applier; fetcher may be nil when fetching is off.
func NewApplier(caps Capabilities, fetcher Fetcher) *Applier {
	return &Applier{Caps: caps, Fetcher: fetcher}
}

// Apply never modifies u. A failed application returns u unchanged with
// Continue=false; the only error returned is ctx's, when the context ended
// during a network call.
func (a *Applier) Apply(ctx context.Context, u *url.URL, rule *Rule, sink Sink) (ApplyResult, error) {
	if sink == nil {
		sink = NopSink
	}
	hrefBefore := u.String()
	paramsBefore := ParseSearchParams(u.RawQuery).Size()

	res := ApplyResult{URL: u}
	var err error
	switch spec := rule.Spec.(type) {
	case *WhitelistSpec:
		res.URL = a.applyWhitelist(u, spec, sink)
	case *BlacklistSpec:
		res.URL = a.applyBlacklist(u, spec, sink)
	case *ParamSpec:
		res = a.applyParam(u, rule, spec, sink)
	case *RegexSpec:
		res = a.applyRegex(u, rule, spec, sink)
	case *RedirectSpec:
		res, err = a.applyRedirect(ctx, u, rule, spec, sink)
	case *VisitSpec:
		res, err = a.applyVisit(ctx, u, rule, spec, sink)
	case *LambdaSpec:
		res, err = a.applyLambda(ctx, u, rule, spec, sink)
	default:
		sink(fmt.Sprintf("Invalid mode: %s", rule.Mode))
	}
	if err != nil {
		return ApplyResult{URL: u}, err
	}
	if res.URL == nil {
		res.URL = u
	}

	switch rule.Spec.(type) {
	case *WhitelistSpec, *BlacklistSpec:
		res.Increment.Param += int64(paramsBefore - ParseSearchParams(res.URL.RawQuery).Size())
	}
	if d := len(hrefBefore) - len(res.URL.String()); d > 0 {
		res.Increment.Char += int64(d)
	}
	return res, nil
}

func (a *Applier) applyWhitelist(u *url.URL, spec *WhitelistSpec, sink Sink) *url.URL {
	if !spec.Std && !IsStandardQuery(u.RawQuery) {
		sink(fmt.Sprintf("Non-standard URL search string: ?%s", u.RawQuery))
		return u
	}
	current := ParseSearchParams(u.RawQuery)
	kept := &SearchParams{}
	for _, name := range spec.Params {
		if v, ok := current.Get(name); ok {
			kept.Set(name, v)
		}
	}
	out := cloneURL(u)
	setQuery(out, kept)
	return out
}

func (a *Applier) applyBlacklist(u *url.URL, spec *BlacklistSpec, sink Sink) *url.URL {
	if !spec.Std && !IsStandardQuery(u.RawQuery) {
		sink(fmt.Sprintf("Non-standard URL search string: ?%s", u.RawQuery))
		return u
	}
	sp := ParseSearchParams(u.RawQuery)
	for _, name := range spec.Params {
		sp.Delete(name)
	}
	out := cloneURL(u)
	setQuery(out, sp)
	return out
}

func (a *Applier) applyParam(u *url.URL, rule *Rule, spec *ParamSpec, sink Sink) ApplyResult {
	sp := ParseSearchParams(u.RawQuery)
	var value string
	for _, name := range spec.Params {
		if v, ok := sp.Get(name); ok {
			value = v
			break
		}
	}
	if value == "" {
		sink(fmt.Sprintf("Parameter(s) not found: %s", strings.Join(spec.Params, ", ")))
		return ApplyResult{URL: u}
	}
	acts := spec.Acts
	if acts == nil {
		acts = DefaultParamActs
	}
	dest, ok := ApplyActs(value, acts, sink)
	if !ok || dest == "" {
		sink(fmt.Sprintf("Invalid URL: %s", dest))
		return ApplyResult{URL: u}
	}
	next, err := ParseURL(dest, u)
	if err != nil {
		sink(fmt.Sprintf("Invalid URL: %s", dest))
		return ApplyResult{URL: u}
	}
	return ApplyResult{URL: next, Continue: rule.ShouldContinue(), Increment: Statistics{Decoded: 1}}
}

func (a *Applier) applyRegex(u *url.URL, rule *Rule, spec *RegexSpec, sink Sink) ApplyResult {
	href := u.String()
	for i, pattern := range spec.Regex {
		re, err := compileRegex(pattern)
		if err != nil {
			sink(fmt.Sprintf("Invalid regex: %s (%v)", pattern, err))
			return ApplyResult{URL: u}
		}
		href, err = re.Replace(href, jsReplacement(spec.Replace[i]), -1, -1)
		if err != nil {
			sink(fmt.Sprintf("Regex %s failed: %v", pattern, err))
			return ApplyResult{URL: u}
		}
	}
	next, err := ParseURL(href, u)
	if err != nil {
		sink(fmt.Sprintf("Invalid URL: %s", href))
		return ApplyResult{URL: u}
	}
	return ApplyResult{URL: next, Continue: rule.ShouldContinue()}
}

func (a *Applier) fetch(ctx context.Context, method string, u *url.URL, ua string, headers map[string]string) (*FetchResponse, error) {
	if a.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	h := make(http.Header, len(headers)+1)
	for k, v := range headers {
		h.Set(k, v)
	}
	if ua != "" {
		h.Set("User-Agent", ua)
	}
	return a.Fetcher.Fetch(ctx, FetchRequest{
		URL:      u.String(),
		Method:   method,
		Header:   h,
		ReadBody: method == http.MethodGet,
	})
}

func (a *Applier) applyRedirect(ctx context.Context, u *url.URL, rule *Rule, spec *RedirectSpec, sink Sink) (ApplyResult, error) {
	if !a.Caps.FetchEnabled {
		sink("Redirect mode is disabled.")
		return ApplyResult{URL: u}, nil
	}
	resp, err := a.fetch(ctx, http.MethodHead, u, spec.UA, spec.Headers)
	if err != nil {
		if ctx.Err() != nil {
			return ApplyResult{}, ctx.Err()
		}
		sink(fmt.Sprintf("Error following redirect: %v", err))
		return ApplyResult{URL: u}, nil
	}
	var dest string
	switch {
	case resp.IsRedirect():
		dest = resp.Header.Get("Location")
	case resp.URL != "" && resp.URL != u.String():
		dest = resp.URL
	}
	if dest == "" {
		sink("No redirection made.")
		return ApplyResult{URL: u}, nil
	}
	next, err := ParseURL(dest, u)
	if err != nil {
		sink(fmt.Sprintf("Invalid redirect destination: %s", dest))
		return ApplyResult{URL: u}, nil
	}
	if next.String() == u.String() {
		sink("No redirection made.")
		return ApplyResult{URL: u}, nil
	}
	return ApplyResult{URL: next, Continue: rule.ShouldContinue(), Increment: Statistics{Redirected: 1}}, nil
}

func (a *Applier) applyVisit(ctx context.Context, u *url.URL, rule *Rule, spec *VisitSpec, sink Sink) (ApplyResult, error) {
	if !a.Caps.FetchEnabled {
		sink("Visit mode is disabled.")
		return ApplyResult{URL: u}, nil
	}
	resp, err := a.fetch(ctx, http.MethodGet, u, spec.UA, spec.Headers)
	if err != nil {
		if ctx.Err() != nil {
			return ApplyResult{}, ctx.Err()
		}
		sink(fmt.Sprintf("Error visiting URL: %v", err))
		return ApplyResult{URL: u}, nil
	}
	var next *url.URL
	if resp.IsRedirect() {
		loc := resp.Header.Get("Location")
		sink(fmt.Sprintf("Visit mode, but got redirected to: %s", loc))
		if next, err = ParseURL(loc, u); err != nil {
			sink(fmt.Sprintf("Invalid URL: %s", loc))
			return ApplyResult{URL: u}, nil
		}
	} else {
		acts := spec.Acts
		if len(acts) == 0 {
			acts = DefaultVisitActs
		}
		dest, ok := ApplyActs(resp.Body, acts, sink)
		if !ok || dest == "" {
			sink(fmt.Sprintf("Invalid URL: %s", dest))
			return ApplyResult{URL: u}, nil
		}
		if next, err = ParseURL(dest, u); err != nil {
			sink(fmt.Sprintf("Invalid URL: %s", dest))
			return ApplyResult{URL: u}, nil
		}
	}
	return ApplyResult{URL: next, Continue: rule.ShouldContinue(), Increment: Statistics{Visited: 1}}, nil
}

func (a *Applier) applyLambda(ctx context.Context, u *url.URL, rule *Rule, spec *LambdaSpec, sink Sink) (ApplyResult, error) {
	if !a.Caps.LambdaEnabled {
		sink("Lambda mode is disabled.")
		return ApplyResult{URL: u}, nil
	}
	next, err := spec.Call(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return ApplyResult{}, ctx.Err()
		}
		sink(fmt.Sprintf("Error executing lambda: %v", err))
		return ApplyResult{URL: u}, nil
	}
	return ApplyResult{URL: next, Continue: rule.ShouldContinue()}, nil
}
