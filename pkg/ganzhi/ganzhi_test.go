package ganzhi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolvePillar(t *testing.T) {
	got, err := Resolver{}.ResolvePillar(Day, Pair{Stem: "庚", Branch: "辰"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Pillar{
		Stem:          "庚",
		Branch:        "辰",
		StemLabel:     "Geng",
		BranchLabel:   "Chen",
		StemElement:   Metal,
		BranchElement: Earth,
		Phrase:        "Metal meets Earth",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolvePillar mismatch (-want +got):\n%s", diff)
	}
	if got.Label() != "GengChen" {
		t.Errorf("Label() = %q, want GengChen", got.Label())
	}
}

func TestStemAndBranchTablesDiffer(t *testing.T) {
	// 子 is Water as a branch while 甲 (same cyclic position) is Wood as a stem
	stemEl, _ := StemElement("甲")
	branchEl, _ := BranchElement("子")
	if stemEl == branchEl {
		t.Errorf("stem 甲 and branch 子 should map to different elements, both %s", stemEl)
	}

	stemCount := map[Element]int{}
	for _, s := range stems {
		stemCount[s.element]++
	}
	for _, el := range Elements {
		if stemCount[el] != 2 {
			t.Errorf("element %s has %d stems, want 2", el, stemCount[el])
		}
	}

	branchCount := map[Element]int{}
	for _, b := range branches {
		branchCount[b.element]++
	}
	if branchCount[Earth] != 4 {
		t.Errorf("Earth has %d branches, want 4", branchCount[Earth])
	}
	if len(branches) != 12 {
		t.Errorf("branch table has %d entries, want 12", len(branches))
	}
}

func TestResolveBaZi(t *testing.T) {
	ec := EightCharacters{
		{Stem: "庚", Branch: "午"},
		{Stem: "辛", Branch: "巳"},
		{Stem: "庚", Branch: "辰"},
	}

	bazi, err := Resolver{Strict: true}.Resolve(ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bazi.String() != "GengWu XinSi GengChen" {
		t.Errorf("String() = %q", bazi.String())
	}
	if bazi.DayMaster() != Metal {
		t.Errorf("DayMaster() = %s, want Metal", bazi.DayMaster())
	}
}

func TestUnmappedComponentPolicy(t *testing.T) {
	ec := EightCharacters{
		{Stem: "甲", Branch: "子"},
		{Stem: "乙", Branch: "?"},
		{Stem: "丙", Branch: "寅"},
	}

	t.Run("strict", func(t *testing.T) {
		_, err := Resolver{Strict: true}.Resolve(ec)
		if !errors.Is(err, ErrInvalidPillarComponent) {
			t.Fatalf("expected ErrInvalidPillarComponent, got %v", err)
		}
		var cerr *ComponentError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected *ComponentError, got %T", err)
		}
		if cerr.Index != Month || cerr.Component != "branch" {
			t.Errorf("got index %v component %q, want month branch", cerr.Index, cerr.Component)
		}
	})

	t.Run("lenient", func(t *testing.T) {
		bazi, err := Resolver{}.Resolve(ec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bazi[Month].BranchLabel != UnknownLabel {
			t.Errorf("BranchLabel = %q, want Unknown", bazi[Month].BranchLabel)
		}
		if bazi[Month].Phrase != "Wood meets Unknown" {
			t.Errorf("Phrase = %q", bazi[Month].Phrase)
		}
		if bazi.String() != "JiaZi YiUnknown BingYin" {
			t.Errorf("String() = %q", bazi.String())
		}
	})

	t.Run("lenient unknown day master", func(t *testing.T) {
		bazi, _ := Resolver{}.Resolve(EightCharacters{{Stem: "甲", Branch: "子"}, {Stem: "甲", Branch: "子"}, {Stem: "X", Branch: "子"}})
		if bazi.DayMaster() != Unknown {
			t.Errorf("DayMaster() = %s, want Unknown", bazi.DayMaster())
		}
	})
}
