package mansion

import (
	"fmt"

	"github.com/chrissnell/lunarmansion/pkg/calendar"
)

// Outcome is the result of resolving a mansion. When Fallback is set, Reason says
// why the strategy's answer was not used.
type Outcome struct {
	Mansion  Mansion
	Strategy string
	Fallback bool
	Reason   string
}

// Resolver applies a Strategy and falls back to the hash when the strategy cannot answer.
// Resolve never fails.
type Resolver struct {
	strategy Strategy
}

// NewResolver creates a resolver for the named strategy
func NewResolver(name string) (*Resolver, error) {
	s, err := NewStrategy(name)
	if err != nil {
		return nil, err
	}
	return &Resolver{strategy: s}, nil
}

// Strategy returns the active strategy's name
func (r *Resolver) Strategy() string {
	return r.strategy.Name()
}

// Resolve determines the mansion for in
func (r *Resolver) Resolve(in Input) Outcome {
	if !calendar.IsValidDate(in.SolarYear, in.SolarMonth, in.SolarDay) {
		return r.fallback(in, fmt.Sprintf("invalid solar date %s", in.SolarDate()))
	}
	if in.LunarDay < 1 || in.LunarDay > 31 {
		return r.fallback(in, fmt.Sprintf("lunar day %d out of range", in.LunarDay))
	}

	label, ok := r.strategy.Label(in)
	if !ok {
		return r.fallback(in, fmt.Sprintf("no %s entry for lunar day %d, solar %s",
			r.strategy.Name(), in.LunarDay, in.SolarDate()))
	}
	if !HasDescription(label) {
		return r.fallback(in, fmt.Sprintf("mansion %q has no description", label))
	}

	m, _ := Lookup(label)
	return Outcome{Mansion: m, Strategy: r.strategy.Name()}
}

func (r *Resolver) fallback(in Input, reason string) Outcome {
	return Outcome{
		Mansion:  Fallback(in.SolarDate()),
		Strategy: r.strategy.Name(),
		Fallback: true,
		Reason:   reason,
	}
}
