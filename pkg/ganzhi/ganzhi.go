// Package ganzhi resolves Heavenly Stem / Earthly Branch pairs into their romanized
// names and Five Element readings. Stems and branches carry independent element tables.
package ganzhi

import (
	"errors"
	"fmt"
	"strings"
)

// Element is one of the Five Elements
type Element string

const (
	Wood    Element = "Wood"
	Fire    Element = "Fire"
	Earth   Element = "Earth"
	Metal   Element = "Metal"
	Water   Element = "Water"
	Unknown Element = "Unknown"
)

// Elements lists the Five Elements in generating order
var Elements = []Element{Wood, Fire, Earth, Metal, Water}

// UnknownLabel is used in place of a romanized name that could not be resolved
const UnknownLabel = "Unknown"

type symbol struct {
	label   string
	element Element
}

// Two stems per element
var stems = map[string]symbol{
	"甲": {"Jia", Wood},
	"乙": {"Yi", Wood},
	"丙": {"Bing", Fire},
	"丁": {"Ding", Fire},
	"戊": {"Wu", Earth},
	"己": {"Ji", Earth},
	"庚": {"Geng", Metal},
	"辛": {"Xin", Metal},
	"壬": {"Ren", Water},
	"癸": {"Gui", Water},
}

// Earth owns four branches, every other element two
var branches = map[string]symbol{
	"子": {"Zi", Water},
	"丑": {"Chou", Earth},
	"寅": {"Yin", Wood},
	"卯": {"Mao", Wood},
	"辰": {"Chen", Earth},
	"巳": {"Si", Fire},
	"午": {"Wu", Fire},
	"未": {"Wei", Earth},
	"申": {"Shen", Metal},
	"酉": {"You", Metal},
	"戌": {"Xu", Earth},
	"亥": {"Hai", Water},
}

// Position names the three resolved pillars
type Position int

const (
	Year Position = iota
	Month
	Day
)

func (p Position) String() string {
	switch p {
	case Year:
		return "year"
	case Month:
		return "month"
	case Day:
		return "day"
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// Pair is a raw stem and branch in native script
type Pair struct {
	Stem   string
	Branch string
}

// EightCharacters holds the year, month and day pairs as produced by a lunar calendar.
// The hour pillar is not resolved.
type EightCharacters [3]Pair

// Pillar is a fully resolved stem/branch pair
type Pillar struct {
	Stem          string  `json:"stem"`
	Branch        string  `json:"branch"`
	StemLabel     string  `json:"stem_label"`
	BranchLabel   string  `json:"branch_label"`
	StemElement   Element `json:"stem_element"`
	BranchElement Element `json:"branch_element"`
	Phrase        string  `json:"phrase"`
}

// Label returns the romanized pillar, e.g. "JiaZi"
func (p Pillar) Label() string {
	return p.StemLabel + p.BranchLabel
}

// BaZi is the ordered (year, month, day) triple of pillars
type BaZi [3]Pillar

// String joins the pillar labels with spaces
func (b BaZi) String() string {
	labels := make([]string, len(b))
	for i, p := range b {
		labels[i] = p.Label()
	}
	return strings.Join(labels, " ")
}

// DayMaster returns the element of the day pillar's stem
func (b BaZi) DayMaster() Element {
	return b[Day].StemElement
}

// ErrInvalidPillarComponent is returned in strict mode for an unmapped stem or branch
var ErrInvalidPillarComponent = errors.New("invalid pillar component")

// ComponentError names the pillar and component that could not be mapped
type ComponentError struct {
	Index     Position
	Component string // "stem" or "branch"
	Value     string
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %s pillar (index %d) has unmapped %s %q",
		ErrInvalidPillarComponent, e.Index, int(e.Index), e.Component, e.Value)
}

func (e *ComponentError) Unwrap() error {
	return ErrInvalidPillarComponent
}

// Resolver maps raw pairs to pillars. With Strict set, an unmapped component is an
// error; otherwise it resolves to "Unknown". The policy covers every component alike.
type Resolver struct {
	Strict bool
}

// Resolve resolves all three pillars
func (r Resolver) Resolve(ec EightCharacters) (BaZi, error) {
	var bazi BaZi
	for i, pair := range ec {
		p, err := r.ResolvePillar(Position(i), pair)
		if err != nil {
			return BaZi{}, err
		}
		bazi[i] = p
	}
	return bazi, nil
}

// ResolvePillar resolves a single pair at the given position
func (r Resolver) ResolvePillar(pos Position, pair Pair) (Pillar, error) {
	stem, ok := stems[pair.Stem]
	if !ok {
		if r.Strict {
			return Pillar{}, &ComponentError{Index: pos, Component: "stem", Value: pair.Stem}
		}
		stem = symbol{UnknownLabel, Unknown}
	}

	branch, ok := branches[pair.Branch]
	if !ok {
		if r.Strict {
			return Pillar{}, &ComponentError{Index: pos, Component: "branch", Value: pair.Branch}
		}
		branch = symbol{UnknownLabel, Unknown}
	}

	return Pillar{
		Stem:          pair.Stem,
		Branch:        pair.Branch,
		StemLabel:     stem.label,
		BranchLabel:   branch.label,
		StemElement:   stem.element,
		BranchElement: branch.element,
		Phrase:        fmt.Sprintf("%s meets %s", stem.element, branch.element),
	}, nil
}

// StemElement looks up the element of a stem in native script
func StemElement(stem string) (Element, bool) {
	s, ok := stems[stem]
	return s.element, ok
}

// BranchElement looks up the element of a branch in native script
func BranchElement(branch string) (Element, bool) {
	b, ok := branches[branch]
	return b.element, ok
}
