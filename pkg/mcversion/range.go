package mcversion

import (
	"fmt"
	"strings"
)

// Range is a set of versions; WithinBounds is its only operation.
type Range interface {
	WithinBounds(v Version) bool
	String() string
	isRange()
}

// Unbounded contains every version.
type Unbounded struct{}

// Bounded contains From <= v <= To.
type Bounded struct {
	From Version
	To   Version
}

// UpperBounded contains v <= To.
type UpperBounded struct {
	To Version
}

// LowerBounded contains v >= From.
type LowerBounded struct {
	From Version
}

func (Unbounded) isRange()    {}
func (Bounded) isRange()      {}
func (UpperBounded) isRange() {}
func (LowerBounded) isRange() {}

func (Unbounded) WithinBounds(Version) bool { return true }

func (r Bounded) WithinBounds(v Version) bool {
	return Compare(r.From, v) <= 0 && Compare(v, r.To) <= 0
}

func (r UpperBounded) WithinBounds(v Version) bool {
	return Compare(v, r.To) <= 0
}

func (r LowerBounded) WithinBounds(v Version) bool {
	return Compare(v, r.From) >= 0
}

func (Unbounded) String() string      { return ".." }
func (r Bounded) String() string      { return r.From.String() + ".." + r.To.String() }
func (r UpperBounded) String() string { return ".." + r.To.String() }
func (r LowerBounded) String() string { return r.From.String() + ".." }

// ParseRange parses "a..b", "..b", "a.." and ".." (or the empty string, meaning Unbounded).
// A single version "a" is the degenerate range a..a.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ".." {
		return Unbounded{}, nil
	}

	from, to, found := strings.Cut(s, "..")
	if !found {
		v, err := Parse(s)
		if err != nil {
			return nil, err
		}
		return Bounded{From: v, To: v}, nil
	}

	var lo, hi Version
	var err error
	if from != "" {
		if lo, err = Parse(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if hi, err = Parse(to); err != nil {
			return nil, err
		}
	}

	switch {
	case lo != nil && hi != nil:
		if Compare(lo, hi) > 0 {
			return nil, fmt.Errorf("empty version range %q: lower bound is above upper bound", s)
		}
		return Bounded{From: lo, To: hi}, nil
	case lo != nil:
		return LowerBounded{From: lo}, nil
	default:
		return UpperBounded{To: hi}, nil
	}
}
