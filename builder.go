package faust

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"unicode/utf8"
)

// ErrUnbalanced reports a declaration stream whose open/close bracketing
// does not match. It signals a protocol breach by the compiled unit, not
// a user-facing condition.
var ErrUnbalanced = errors.New("unbalanced declaration stream")

type declType int

const (
	declTabBox declType = iota
	declHorizontalBox
	declVerticalBox
	declCloseBox
	declButton
	declCheckButton
	declHorizontalSlider
	declVerticalSlider
	declNumEntry
	declHorizontalBargraph
	declVerticalBargraph
)

// decl is one item of the flat declaration stream.
type decl struct {
	typ   declType
	label string
	zone  *float32
	init  float32
	min   float32
	max   float32
	step  float32
}

// Builder reconstructs a widget tree from the flat declaration stream a
// compiled instance emits while wiring up its controls. It implements UI:
// the instance calls back into it in its own depth-first traversal order
// and every call is queued, so the recursive construction in Build is
// decoupled from the instance's call timing. The queue is the boundary,
// not a live callback chain.
type Builder struct {
	decls []decl
	meta  map[*float32][]MetaDecl
}

// NewBuilder returns a Builder ready to record declarations.
func NewBuilder() *Builder {
	return &Builder{meta: make(map[*float32][]MetaDecl)}
}

func (b *Builder) OpenTabBox(label string)        { b.open(declTabBox, label) }
func (b *Builder) OpenHorizontalBox(label string) { b.open(declHorizontalBox, label) }
func (b *Builder) OpenVerticalBox(label string)   { b.open(declVerticalBox, label) }

func (b *Builder) CloseBox() {
	b.decls = append(b.decls, decl{typ: declCloseBox})
}

func (b *Builder) AddButton(label string, zone *float32) {
	b.leaf(declButton, label, zone, 0, 0, 0, 0)
}

func (b *Builder) AddCheckButton(label string, zone *float32) {
	b.leaf(declCheckButton, label, zone, 0, 0, 0, 0)
}

func (b *Builder) AddHorizontalSlider(label string, zone *float32, init, min, max, step float32) {
	b.leaf(declHorizontalSlider, label, zone, init, min, max, step)
}

func (b *Builder) AddVerticalSlider(label string, zone *float32, init, min, max, step float32) {
	b.leaf(declVerticalSlider, label, zone, init, min, max, step)
}

func (b *Builder) AddNumEntry(label string, zone *float32, init, min, max, step float32) {
	b.leaf(declNumEntry, label, zone, init, min, max, step)
}

func (b *Builder) AddHorizontalBargraph(label string, zone *float32, min, max float32) {
	b.leaf(declHorizontalBargraph, label, zone, 0, min, max, 0)
}

func (b *Builder) AddVerticalBargraph(label string, zone *float32, min, max float32) {
	b.leaf(declVerticalBargraph, label, zone, 0, min, max, 0)
}

// Declare attaches a metadata key/value pair to a zone. It may be called
// before or after the widget owning the zone is declared.
func (b *Builder) Declare(zone *float32, key, value string) {
	b.meta[zone] = append(b.meta[zone], MetaDecl{Key: key, Value: value})
}

func (b *Builder) open(t declType, label string) {
	b.decls = append(b.decls, decl{typ: t, label: cleanLabel(label)})
}

func (b *Builder) leaf(t declType, label string, zone *float32, init, min, max, step float32) {
	b.decls = append(b.decls, decl{
		typ:   t,
		label: cleanLabel(label),
		zone:  zone,
		init:  init,
		min:   min,
		max:   max,
		step:  step,
	})
}

// Build drains the recorded stream into a widget tree. The stream must be
// consumed completely: a Close without a matching Open, or an Open never
// closed, returns ErrUnbalanced.
func (b *Builder) Build() ([]Widget, error) {
	return b.buildLevel(0)
}

// buildLevel pops declarations until the level ends. Popping Close is the
// only way a nested level ends; an Open recurses into a fresh child list
// before the box joins the current level, so every declaration between
// the Open and its matching Close becomes that box's children.
func (b *Builder) buildLevel(depth int) ([]Widget, error) {
	level := []Widget{}
	for len(b.decls) > 0 {
		d := b.decls[0]
		b.decls = b.decls[1:]
		var w Widget
		switch d.typ {
		case declCloseBox:
			if depth == 0 {
				return nil, fmt.Errorf("%w: close without matching open", ErrUnbalanced)
			}
			return level, nil
		case declTabBox, declHorizontalBox, declVerticalBox:
			inner, err := b.buildLevel(depth + 1)
			if err != nil {
				return nil, err
			}
			w = &Box{Layout: boxLayout(d.typ), Name: d.label, Inner: inner}
		case declButton, declCheckButton:
			m := foldMeta(b.meta[d.zone])
			layout := HeldButton
			if d.typ == declCheckButton {
				layout = Checkbox
			}
			w = &Button{
				Layout:  layout,
				Name:    d.label,
				Zone:    NewZone(d.zone),
				Hidden:  m.Hidden,
				Tooltip: m.Tooltip,
			}
		case declHorizontalSlider, declVerticalSlider, declNumEntry:
			w = &Numeric{
				Layout: numericLayout(d.typ),
				Name:   d.label,
				Zone:   NewZone(d.zone),
				Init:   d.init,
				Min:    d.min,
				Max:    d.max,
				Step:   d.step,
				Meta:   foldMeta(b.meta[d.zone]),
			}
		case declHorizontalBargraph, declVerticalBargraph:
			layout := HorizontalBargraph
			if d.typ == declVerticalBargraph {
				layout = VerticalBargraph
			}
			w = &Bargraph{
				Layout: layout,
				Name:   d.label,
				Zone:   NewZone(d.zone),
				Min:    d.min,
				Max:    d.max,
				Meta:   foldMeta(b.meta[d.zone]),
			}
		}
		level = append(level, w)
	}
	if depth > 0 {
		return nil, fmt.Errorf("%w: %d open box(es) never closed", ErrUnbalanced, depth)
	}
	return level, nil
}

func boxLayout(t declType) BoxLayout {
	switch t {
	case declTabBox:
		return TabBox
	case declHorizontalBox:
		return HorizontalBox
	default:
		return VerticalBox
	}
}

func numericLayout(t declType) NumericLayout {
	switch t {
	case declHorizontalSlider:
		return HorizontalSlider
	case declVerticalSlider:
		return VerticalSlider
	default:
		return NumEntry
	}
}

// cleanLabel normalizes a declared label. The "0x00" placeholder emitted
// for unlabelled groups becomes empty; bytes that are not valid text are
// replaced by a stable hash so tree building and path generation never
// fail on encoding issues.
func cleanLabel(s string) string {
	if s == "0x00" {
		return ""
	}
	if utf8.ValidString(s) {
		return s
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	return strconv.FormatUint(h.Sum64(), 10)
}
