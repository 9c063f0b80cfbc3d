package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/chrissnell/lunarmansion/pkg/calendar"
)

type solarKey struct {
	year, month, day int
}

// CorrectionTable overrides the lunar date for solar dates the calendar library is
// known to get wrong. It is read-only once built.
type CorrectionTable struct {
	entries map[solarKey]LunarDate
}

// Correction is a single override
type Correction struct {
	Solar calendar.CalendarDate
	Lunar LunarDate
}

// NewCorrectionTable builds a table from the given overrides
func NewCorrectionTable(corrections ...Correction) *CorrectionTable {
	t := &CorrectionTable{entries: make(map[solarKey]LunarDate, len(corrections))}
	for _, c := range corrections {
		t.entries[solarKey{c.Solar.Year, c.Solar.Month, c.Solar.Day}] = c.Lunar
	}
	return t
}

// DefaultCorrections returns the built-in overrides
func DefaultCorrections() *CorrectionTable {
	return NewCorrectionTable(
		Correction{Solar: calendar.NewDate(1976, 12, 3), Lunar: LunarDate{Year: 1976, Month: 11, Day: 3}},
	)
}

// Lookup returns the override for the exact solar date d
func (t *CorrectionTable) Lookup(d calendar.CalendarDate) (LunarDate, bool) {
	l, ok := t.entries[solarKey{d.Year, d.Month, d.Day}]
	return l, ok
}

// Len returns the number of overrides
func (t *CorrectionTable) Len() int {
	return len(t.entries)
}

// Digest identifies the table's contents. Tables with the same overrides have the
// same digest regardless of construction order.
func (t *CorrectionTable) Digest() string {
	lines := make([]string, 0, len(t.entries))
	for k, l := range t.entries {
		lines = append(lines, fmt.Sprintf("%04d-%02d-%02d=%s/%t", k.year, k.month, k.day, l, l.Leap))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		fmt.Fprintln(h, line)
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
