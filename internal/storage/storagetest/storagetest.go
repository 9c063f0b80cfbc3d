// Package storagetest holds the behaviour every ResultStore backend must share
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/google/go-cmp/cmp"
)

// Store mirrors storage.ResultStore to keep this package free of import cycles
type Store interface {
	Get(ctx context.Context, key string) (*engine.Result, bool, error)
	Put(ctx context.Context, key string, res *engine.Result) error
	Close() error
}

// SampleResult is a fully populated result
func SampleResult() *engine.Result {
	return &engine.Result{
		SolarDate:               "1990-05-15",
		LunarDate:               "1990-04-21",
		BaZi:                    "GengWu XinSi GengChen",
		DayMaster:               "Geng",
		Element:                 ganzhi.Metal,
		LunarMansion:            "The Winnowing Basket",
		LunarMansionNative:      "箕",
		LunarMansionDescription: "The weave of abundance, attracting prosperity and joy.",
		MansionStrategy:         "table",
		Pillars: []ganzhi.Pillar{
			{Stem: "庚", Branch: "午", StemLabel: "Geng", BranchLabel: "Wu", StemElement: ganzhi.Metal, BranchElement: ganzhi.Fire, Phrase: "Metal meets Fire"},
			{Stem: "辛", Branch: "巳", StemLabel: "Xin", BranchLabel: "Si", StemElement: ganzhi.Metal, BranchElement: ganzhi.Fire, Phrase: "Metal meets Fire"},
			{Stem: "庚", Branch: "辰", StemLabel: "Geng", BranchLabel: "Chen", StemElement: ganzhi.Metal, BranchElement: ganzhi.Earth, Phrase: "Metal meets Earth"},
		},
		BaseAngle:    145,
		JoyDirection: "West (Metal)",
		Timezone:     5.5,
		Angle:        107.5,
		Warnings:     []string{"TimezoneParseFailure: example"},
	}
}

// Run exercises a store. The store is closed when Run returns.
func Run(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	prefix := t.Name()

	t.Run("miss", func(t *testing.T) {
		res, ok, err := s.Get(ctx, prefix+"/absent")
		if err != nil || ok || res != nil {
			t.Errorf("Get(absent) = %v, %t, %v; want nil, false, nil", res, ok, err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := SampleResult()
		if err := s.Put(ctx, prefix+"/1990-05-15", want); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, ok, err := s.Get(ctx, prefix+"/1990-05-15")
		if err != nil || !ok {
			t.Fatalf("Get = %t, %v", ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		first := SampleResult()
		second := SampleResult()
		second.Angle = 145
		second.Warnings = nil

		key := prefix + "/overwrite"
		if err := s.Put(ctx, key, first); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, key, second); err != nil {
			t.Fatal(err)
		}
		got, _, err := s.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(second, got); diff != "" {
			t.Errorf("overwrite mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stored copy is independent", func(t *testing.T) {
		res := SampleResult()
		key := prefix + "/alias"
		if err := s.Put(ctx, key, res); err != nil {
			t.Fatal(err)
		}
		res.Pillars[0].StemLabel = "Mutated"
		got, _, err := s.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if got.Pillars[0].StemLabel != "Geng" {
			t.Error("store shares memory with the caller")
		}
	})

	t.Run("concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("%s/concurrent/%d", prefix, i%4)
				if err := s.Put(ctx, key, SampleResult()); err != nil {
					errs <- err
					return
				}
				if _, _, err := s.Get(ctx, key); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	})

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
