package faust

import (
	"strconv"
	"strings"
)

// Scale is the mapping hint between a control's position and its value.
type Scale int

const (
	Lin Scale = iota
	Log
	Exp
)

// Style overrides how a numeric control or readout should be rendered.
type Style int

const (
	// FromLayout keeps the rendering implied by the widget's layout.
	FromLayout Style = iota
	Knob
	Menu
	Radio
	Led
	Numerical
)

// StyleEntry is one labelled value of a Menu or Radio style.
type StyleEntry struct {
	Label string
	Value float32
}

// Metadata is the bag of advisory display and behaviour hints attached to
// a leaf widget by zone.
type Metadata struct {
	Unit    string
	Tooltip string
	Hidden  bool
	Scale   Scale
	Style   Style
	// Entries is set for Menu and Radio styles only.
	Entries []StyleEntry
}

// MetaDecl is a single key/value hint declared for a zone. Declarations
// may arrive in any order relative to the widget owning the zone.
type MetaDecl struct {
	Key   string
	Value string
}

// foldMeta reduces a zone's hint declarations into one Metadata record.
// Later declarations win per key. Unrecognized keys and malformed values
// are dropped: metadata is advisory and never fails tree construction.
func foldMeta(decls []MetaDecl) Metadata {
	var m Metadata
	for _, d := range decls {
		switch d.Key {
		case "unit":
			m.Unit = d.Value
		case "tooltip":
			m.Tooltip = d.Value
		case "hidden":
			if v, err := strconv.ParseBool(strings.TrimSpace(d.Value)); err == nil {
				m.Hidden = v
			}
		case "scale":
			switch strings.TrimSpace(d.Value) {
			case "lin":
				m.Scale = Lin
			case "log":
				m.Scale = Log
			case "exp":
				m.Scale = Exp
			}
		case "style":
			m.parseStyle(strings.TrimSpace(d.Value))
		}
	}
	return m
}

func (m *Metadata) parseStyle(s string) {
	switch {
	case s == "knob":
		m.Style, m.Entries = Knob, nil
	case s == "led":
		m.Style, m.Entries = Led, nil
	case s == "numerical":
		m.Style, m.Entries = Numerical, nil
	case strings.HasPrefix(s, "menu"):
		if es, ok := parseStyleEntries(strings.TrimPrefix(s, "menu")); ok {
			m.Style, m.Entries = Menu, es
		}
	case strings.HasPrefix(s, "radio"):
		if es, ok := parseStyleEntries(strings.TrimPrefix(s, "radio")); ok {
			m.Style, m.Entries = Radio, es
		}
	}
}

// parseStyleEntries parses the {'label':value;...} dictionary literal of
// menu and radio styles. Single and double quotes are both accepted.
func parseStyleEntries(s string) ([]StyleEntry, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}
	var entries []StyleEntry
	for _, item := range strings.Split(s[1:len(s)-1], ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			// tolerate a trailing separator
			continue
		}
		label, value, ok := splitStyleEntry(item)
		if !ok {
			return nil, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil {
			return nil, false
		}
		entries = append(entries, StyleEntry{Label: label, Value: float32(v)})
	}
	return entries, true
}

func splitStyleEntry(item string) (label, value string, ok bool) {
	quote := item[0]
	if quote != '\'' && quote != '"' {
		return "", "", false
	}
	rest := item[1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return "", "", false
	}
	label = rest[:end]
	rest = strings.TrimSpace(rest[end+1:])
	if len(rest) < 2 || rest[0] != ':' {
		return "", "", false
	}
	return label, rest[1:], true
}
