package mcversion

import "fmt"

// Pins maps canonical snapshot ids to the release each snapshot precedes.
type Pins map[string]Release

// NewPins parses a snapshot id -> release id table, e.g. from configuration.
func NewPins(raw map[string]string) (Pins, error) {
	pins := make(Pins, len(raw))
	for snap, rel := range raw {
		v, err := Parse(snap)
		if err != nil {
			return nil, fmt.Errorf("snapshot pin key: %w", err)
		}
		s, ok := v.(Snapshot)
		if !ok {
			return nil, fmt.Errorf("snapshot pin key %q is a release", snap)
		}
		r, err := ParseRelease(rel)
		if err != nil {
			return nil, fmt.Errorf("snapshot pin %q: %w", snap, err)
		}
		pins[s.String()] = r
	}
	return pins, nil
}

// Apply pins an unpinned snapshot found in the table. Anything else is returned unchanged.
func (p Pins) Apply(v Version) Version {
	s, ok := v.(Snapshot)
	if !ok || s.ForRelease != nil {
		return v
	}
	if r, ok := p[s.String()]; ok {
		return s.PinnedTo(r)
	}
	return v
}
