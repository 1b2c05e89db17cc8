package faust

import (
	"fmt"
	"strconv"
	"strings"
)

// ZoneError lists every leaf path that could not be restored from a
// persisted zone map. Restoration is partial-apply, fail-loud: paths that
// did resolve are applied even when others fail.
type ZoneError struct {
	// Missing are paths of leaves absent from the map.
	Missing []string
	// Unparsable are paths whose stored value is not a number.
	Unparsable []string
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("restoring zones: %d missing and %d unparsable path(s)",
		len(e.Missing), len(e.Unparsable))
}

// WriteZones serializes the current value of every leaf into dst, keyed
// by the leaf's path: the /-joined labels from the root down to the leaf.
func WriteZones(widgets []Widget, dst map[string]string) {
	writeZones(nil, widgets, dst)
}

func writeZones(path []string, widgets []Widget, dst map[string]string) {
	for _, w := range widgets {
		path = append(path, w.Label())
		switch w := w.(type) {
		case *Box:
			writeZones(path, w.Inner, dst)
		case *Button:
			dst[strings.Join(path, "/")] = formatZone(w.Zone.Get())
		case *Numeric:
			dst[strings.Join(path, "/")] = formatZone(w.Zone.Get())
		case *Bargraph:
			dst[strings.Join(path, "/")] = formatZone(w.Zone.Get())
		}
		path = path[:len(path)-1]
	}
}

// LoadZones restores leaf values from a persisted map. Every offending
// path is reported in the returned *ZoneError, not just the first; zones
// on paths that resolved are overwritten even when others failed.
func LoadZones(widgets []Widget, src map[string]string) error {
	var zerr ZoneError
	loadZones(nil, widgets, src, &zerr)
	if len(zerr.Missing) == 0 && len(zerr.Unparsable) == 0 {
		return nil
	}
	return &zerr
}

func loadZones(path []string, widgets []Widget, src map[string]string, zerr *ZoneError) {
	for _, w := range widgets {
		path = append(path, w.Label())
		var zone Zone
		leaf := true
		switch w := w.(type) {
		case *Box:
			loadZones(path, w.Inner, src, zerr)
			leaf = false
		case *Button:
			zone = w.Zone
		case *Numeric:
			zone = w.Zone
		case *Bargraph:
			zone = w.Zone
		}
		if leaf {
			cur := strings.Join(path, "/")
			if s, ok := src[cur]; !ok {
				zerr.Missing = append(zerr.Missing, cur)
			} else if v, err := strconv.ParseFloat(s, 32); err != nil {
				zerr.Unparsable = append(zerr.Unparsable, cur)
			} else {
				zone.Set(float32(v))
			}
		}
		path = path[:len(path)-1]
	}
}

// formatZone renders a value as decimal text that parses back to the
// exact same float32 bits.
func formatZone(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
