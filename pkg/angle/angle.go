// Package angle computes the lucky compass angle for a day master element,
// adjusted for the caller's UTC offset against the UTC+8 benchmark.
package angle

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// BenchmarkOffset is the UTC offset, in hours, at which no adjustment is made
	BenchmarkOffset = 8.0
	// DegreesPerHour is the rotation applied per hour of offset difference
	DegreesPerHour = 15.0
	// DefaultMetalAngle is Metal's base angle; some deployments use 180
	DefaultMetalAngle = 145.0
	// DefaultJitterSpread bounds the optional jitter to [-10, 10] degrees
	DefaultJitterSpread = 10
)

// ErrTimezoneParse is reported when an offset cannot be parsed; it is never fatal
var ErrTimezoneParse = errors.New("timezone parse failure")

// Direction is the base angle and "joy" direction for an element
type Direction struct {
	Angle float64
	Joy   string
}

// Jitter adds a decorative perturbation in [-Spread, Spread] degrees. It is off
// unless Enabled, and draws are seeded by Seed and the request key so that equal
// inputs give equal angles.
type Jitter struct {
	Enabled bool
	Seed    uint64
	Spread  int
}

// Resolver maps elements to angles
type Resolver struct {
	directions map[ganzhi.Element]Direction
	jitter     Jitter
}

// NewResolver builds a resolver with the given Metal base angle (0 means the default)
// and jitter settings
func NewResolver(metalAngle float64, jitter Jitter) *Resolver {
	if metalAngle == 0 {
		metalAngle = DefaultMetalAngle
	}
	if jitter.Spread <= 0 {
		jitter.Spread = DefaultJitterSpread
	}
	return &Resolver{
		directions: map[ganzhi.Element]Direction{
			ganzhi.Wood:  {Angle: 0, Joy: "North (Water)"},
			ganzhi.Fire:  {Angle: 90, Joy: "East (Wood)"},
			ganzhi.Earth: {Angle: 180, Joy: "South (Fire)"},
			ganzhi.Metal: {Angle: metalAngle, Joy: "South (Earth)"},
			ganzhi.Water: {Angle: 270, Joy: "West (Metal)"},
		},
		jitter: jitter,
	}
}

// Direction returns the base direction for an element. Unknown elements get angle 0
// and an empty joy direction.
func (r *Resolver) Direction(el ganzhi.Element) Direction {
	return r.directions[el]
}

// Result is a computed angle
type Result struct {
	Base     float64
	Joy      string
	Offset   float64
	Jitter   int
	Angle    float64
	Adjusted bool
}

// Resolve computes the angle for el at the given UTC offset. key identifies the
// request for jitter seeding and is ignored when jitter is off. A non-finite
// offset or intermediate value yields the unadjusted base angle.
func (r *Resolver) Resolve(el ganzhi.Element, offset float64, key string) Result {
	dir := r.Direction(el)
	res := Result{Base: dir.Angle, Joy: dir.Joy, Offset: offset, Angle: dir.Angle}

	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return res
	}

	adjustment := (offset - BenchmarkOffset) * DegreesPerHour
	if r.jitter.Enabled {
		res.Jitter = r.draw(key)
	}

	raw := scalar.RoundEven(dir.Angle+adjustment+float64(res.Jitter), 2)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		res.Jitter = 0
		return res
	}

	res.Angle = Normalize(raw)
	res.Adjusted = true
	return res
}

func (r *Resolver) draw(key string) int {
	h := fnv.New64a()
	h.Write([]byte(key))
	rng := rand.New(rand.NewPCG(r.jitter.Seed, h.Sum64()))
	return rng.IntN(2*r.jitter.Spread+1) - r.jitter.Spread
}

// Normalize maps any finite angle into [0, 360)
func Normalize(deg float64) float64 {
	a := unit.PMod(deg, 360)
	if a >= 360 || a == 0 {
		// also folds -0 into 0
		return 0
	}
	return a
}

// ParseOffset parses a UTC offset in hours. An empty string is the benchmark offset.
// Anything unparseable returns the benchmark offset together with ErrTimezoneParse.
func ParseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BenchmarkOffset, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return BenchmarkOffset, fmt.Errorf("%w: %q", ErrTimezoneParse, s)
	}
	return v, nil
}
