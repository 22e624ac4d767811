// Package mcversion models Minecraft game versions: numbered releases and dated snapshots,
// their total order and ranges over them.
package mcversion

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"unicode"
)

// ErrInvalidVersionFormat is returned (wrapped in *FormatError) when a string is neither a
// release nor a snapshot id.
var ErrInvalidVersionFormat = errors.New("invalid version format")

// FormatError carries the rejected input.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidVersionFormat, e.Input)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidVersionFormat
}

// Version is either a Release or a Snapshot.
type Version interface {
	String() string
	isVersion()
}

// Release is a numbered stable version, e.g. 1.20.4.
type Release struct {
	Major int
	Minor int
	Patch int
}

// Snapshot is a dated pre-release build, e.g. 2023w45a. ForRelease is a lookup hint that
// makes the snapshot comparable with releases; the snapshot does not own it.
type Snapshot struct {
	Year       int
	Week       int
	Patch      rune
	ForRelease *Release
}

func (Release) isVersion()  {}
func (Snapshot) isVersion() {}

// String renders the canonical form. A zero patch is omitted, as Minecraft does for x.y releases.
func (r Release) String() string {
	if r.Patch == 0 {
		return fmt.Sprintf("%d.%d", r.Major, r.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Patch)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%04dw%02d%c", s.Year, s.Week, unicode.ToLower(s.Patch))
}

// PinnedTo returns a copy of the snapshot associated with the release it precedes.
func (s Snapshot) PinnedTo(r Release) Snapshot {
	pinned := r
	s.ForRelease = &pinned
	return s
}

var (
	releasePattern  = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?$`)
	snapshotPattern = regexp.MustCompile(`^(\d{2}|\d{4})w(\d{2})([a-zA-Z])$`)
)

// Parse parses a release ("1.20.4", "1.21") or a snapshot ("2023w45a", "23w45a").
// A zero patch is not kept: Parse("1.20.0").String() is "1.20".
func Parse(s string) (Version, error) {
	if m := releasePattern.FindStringSubmatch(s); m != nil {
		parts := []string{m[1], m[2], m[3]}
		if m[3] == "" {
			parts[2] = "0"
		}
		nums, ok := atoiAll(parts)
		if !ok {
			return nil, &FormatError{Input: s}
		}
		return Release{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
	}
	if m := snapshotPattern.FindStringSubmatch(s); m != nil {
		nums, ok := atoiAll([]string{m[1], m[2]})
		if !ok {
			return nil, &FormatError{Input: s}
		}
		year, week := nums[0], nums[1]
		if len(m[1]) == 2 {
			year += 2000
		}
		if week < 1 || week > 53 {
			return nil, &FormatError{Input: s}
		}
		return Snapshot{Year: year, Week: week, Patch: unicode.ToLower(rune(m[3][0]))}, nil
	}
	return nil, &FormatError{Input: s}
}

// atoiAll fails if any component does not fit in an int.
func atoiAll(parts []string) ([]int, bool) {
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

// ParseRelease parses s and fails unless it is a release.
func ParseRelease(s string) (Release, error) {
	v, err := Parse(s)
	if err != nil {
		return Release{}, err
	}
	r, ok := v.(Release)
	if !ok {
		return Release{}, &FormatError{Input: s}
	}
	return r, nil
}

// MustParse is Parse that panics; for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1.
//
// Releases compare on (major, minor, patch) and snapshots on (year, week, patch letter, case
// folded). A snapshot pinned to a release compares as that release; an unpinned snapshot orders
// before every release.
func Compare(a, b Version) int {
	switch av := a.(type) {
	case Release:
		switch bv := b.(type) {
		case Release:
			return compareReleases(av, bv)
		case Snapshot:
			return -compareSnapshotRelease(bv, av)
		}
	case Snapshot:
		switch bv := b.(type) {
		case Release:
			return compareSnapshotRelease(av, bv)
		case Snapshot:
			return compareSnapshots(av, bv)
		}
	}
	panic(fmt.Sprintf("mcversion: unsupported version types %T and %T", a, b))
}

// Equal reports whether a and b hold the same position in the order.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}

// Sort orders versions ascending; equal versions keep their relative order.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, Compare)
}

func compareReleases(a, b Release) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return compareInt(a.Patch, b.Patch)
}

func compareSnapshots(a, b Snapshot) int {
	if c := compareInt(a.Year, b.Year); c != 0 {
		return c
	}
	if c := compareInt(a.Week, b.Week); c != 0 {
		return c
	}
	return compareInt(int(unicode.ToLower(a.Patch)), int(unicode.ToLower(b.Patch)))
}

func compareSnapshotRelease(s Snapshot, r Release) int {
	if s.ForRelease != nil {
		return compareReleases(*s.ForRelease, r)
	}
	return -1
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
