package model

import "fmt"

// Statistics holds the six purification counters. The same type carries
// both cumulative values and per-call increments.
type Statistics struct {
	URL        int64 `json:"url" yaml:"url"`               // purifications that changed something
	Param      int64 `json:"param" yaml:"param"`           // query parameters removed by white/black
	Decoded    int64 `json:"decoded" yaml:"decoded"`       // param-mode extractions
	Redirected int64 `json:"redirected" yaml:"redirected"` // redirect-mode hops
	Visited    int64 `json:"visited" yaml:"visited"`       // visit-mode hops
	Char       int64 `json:"char" yaml:"char"`             // characters saved
}

// Add returns the field-wise sum.
func (s Statistics) Add(o Statistics) Statistics {
	return Statistics{
		URL:        s.URL + o.URL,
		Param:      s.Param + o.Param,
		Decoded:    s.Decoded + o.Decoded,
		Redirected: s.Redirected + o.Redirected,
		Visited:    s.Visited + o.Visited,
		Char:       s.Char + o.Char,
	}
}

// Negate returns the increment that brings s back to zero.
func (s Statistics) Negate() Statistics {
	return Statistics{
		URL:        -s.URL,
		Param:      -s.Param,
		Decoded:    -s.Decoded,
		Redirected: -s.Redirected,
		Visited:    -s.Visited,
		Char:       -s.Char,
	}
}

func (s Statistics) IsZero() bool {
	return s == Statistics{}
}

func (s Statistics) String() string {
	return fmt.Sprintf("url=%d param=%d decoded=%d redirected=%d visited=%d char=%d",
		s.URL, s.Param, s.Decoded, s.Redirected, s.Visited, s.Char)
}
