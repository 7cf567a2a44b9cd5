package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
)

// Act is one step of a decoding pipeline. in is whatever the previous act
// produced: a string, a *goquery.Document or a *goquery.Selection.
type Act func(in any, args []string) (any, error)

var actRegistry = make(map[string]Act)

// RegisterAct makes an act available to "acts" command strings.
func RegisterAct(name string, act Act) {
	actRegistry[name] = act
}

func init() {
	RegisterAct("url", actURL)
	RegisterAct("base64", actBase64)
	RegisterAct("slice", actSlice)
	RegisterAct("regex", actRegex)
	RegisterAct("dom", actDOM)
	RegisterAct("sel", actSel)
	RegisterAct("attr", actAttr)
	RegisterAct("text", actText)
}

// DefaultParamActs is used by param rules that do not list acts.
var DefaultParamActs = []string{"url"}

// DefaultVisitActs extracts the first bare http(s) URL of a response body.
var DefaultVisitActs = []string{`regex:https?:\/\/.(?:www\.)?[-a-zA-Z0-9@%._\+~#=]{2,256}\.[a-z]{2,6}\b(?:[-a-zA-Z0-9@:%_\+.~#?!&\/\/=]*)`}

// ApplyActs runs commands ("name[:arg[:arg...]]") over input in order.
// ok is false when an act is unknown, fails, or the pipeline does not end
// with a string; the failure is reported to sink.
func ApplyActs(input string, commands []string, sink Sink) (string, bool) {
	if sink == nil {
		sink = NopSink
	}
	var cur any = input
	for _, cmd := range commands {
		parts := strings.Split(cmd, ":")
		name := parts[0]
		act, ok := actRegistry[name]
		if !ok {
			sink(fmt.Sprintf("Invalid act: %s", cmd))
			return "", false
		}
		out, err := act(cur, parts[1:])
		if err != nil {
			sink(fmt.Sprintf("Error processing input with act %q: %v", name, err))
			return "", false
		}
		cur = out
	}
	s, ok := cur.(string)
	if !ok {
		sink(fmt.Sprintf("Act pipeline ended with %T instead of a string", cur))
		return "", false
	}
	return s, true
}

func asString(in any) (string, error) {
	s, ok := in.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", in)
	}
	return s, nil
}

func actURL(in any, _ []string) (any, error) {
	s, err := asString(in)
	if err != nil {
		return nil, err
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return nil, err
	}
	if !utf8.ValidString(out) {
		return nil, errors.New("malformed UTF-8 after percent-decoding")
	}
	return out, nil
}

// actBase64 accepts both the URL-safe alphabet and missing padding.
func actBase64(in any, _ []string) (any, error) {
	s, err := asString(in)
	if err != nil {
		return nil, err
	}
	s = strings.NewReplacer("_", "/", "-", "+").Replace(strings.TrimSpace(s))
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, errors.New("decoded bytes are not valid UTF-8")
	}
	return string(raw), nil
}

// actSlice works on characters; negative indices count from the end.
func actSlice(in any, args []string) (any, error) {
	s, err := asString(in)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("slice needs a start index")
	}
	runes := []rune(s)
	start, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("slice start: %w", err)
	}
	end := len(runes)
	if len(args) > 1 && args[1] != "" {
		if end, err = strconv.Atoi(args[1]); err != nil {
			return nil, fmt.Errorf("slice end: %w", err)
		}
	}
	start, end = clampIndex(start, len(runes)), clampIndex(end, len(runes))
	if start >= end {
		return "", nil
	}
	return string(runes[start:end]), nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// actRegex returns the first match or "". The pattern may contain ':'.
func actRegex(in any, args []string) (any, error) {
	s, err := asString(in)
	if err != nil {
		return nil, err
	}
	re, err := compileRegex(strings.Join(args, ":"))
	if err != nil {
		return nil, err
	}
	m, err := re.FindStringMatch(s)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return "", nil
	}
	return m.String(), nil
}

func actDOM(in any, _ []string) (any, error) {
	s, err := asString(in)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s))
}

// actSel yields the first matching element, or nil when nothing matches.
func actSel(in any, args []string) (any, error) {
	selector := strings.Join(args, ":")
	var sel *goquery.Selection
	switch v := in.(type) {
	case *goquery.Document:
		sel = v.Find(selector)
	case *goquery.Selection:
		if v == nil {
			return nil, errors.New("cannot select within a missing element")
		}
		sel = v.Find(selector)
	default:
		return nil, fmt.Errorf("sel expects a document, got %T", in)
	}
	if sel.Length() == 0 {
		return (*goquery.Selection)(nil), nil
	}
	return sel.First(), nil
}

func actAttr(in any, args []string) (any, error) {
	sel, err := asElement(in)
	if err != nil {
		return nil, err
	}
	name := strings.Join(args, ":")
	val, ok := sel.Attr(name)
	if !ok {
		return nil, fmt.Errorf("attribute %q not found", name)
	}
	return val, nil
}

func actText(in any, _ []string) (any, error) {
	sel, err := asElement(in)
	if err != nil {
		return nil, err
	}
	return sel.Text(), nil
}

func asElement(in any) (*goquery.Selection, error) {
	switch v := in.(type) {
	case *goquery.Selection:
		if v == nil {
			return nil, errors.New("element not found")
		}
		return v, nil
	case *goquery.Document:
		return v.Selection, nil
	default:
		return nil, fmt.Errorf("expected an element, got %T", in)
	}
}

// compileRegex compiles a pattern as written in rule files, with JS RegExp
// semantics (ASCII \d \w \s, JS backreference rules).
func compileRegex(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexTimeout
	return re, nil
}
