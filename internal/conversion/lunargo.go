package conversion

import (
	"github.com/6tail/lunar-go/calendar"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
)

// LunarGo is the LunarCalendar backed by github.com/6tail/lunar-go
type LunarGo struct{}

// NewLunarGo returns the default lunar calendar service
func NewLunarGo() *LunarGo {
	return &LunarGo{}
}

// SolarToLunar converts a Gregorian date. The library reports leap months as negative.
func (LunarGo) SolarToLunar(year, month, day int) (*LunarDate, error) {
	lunar := calendar.NewSolarFromYmd(year, month, day).GetLunar()
	if lunar == nil {
		return nil, nil
	}

	m := lunar.GetMonth()
	d := &LunarDate{Year: lunar.GetYear(), Month: m, Day: lunar.GetDay()}
	if m < 0 {
		d.Month = -m
		d.Leap = true
	}
	return d, nil
}

// EightCharacters returns the year, month and day pillars for a Gregorian date
func (LunarGo) EightCharacters(year, month, day int) (*ganzhi.EightCharacters, error) {
	lunar := calendar.NewSolarFromYmd(year, month, day).GetLunar()
	if lunar == nil {
		return nil, nil
	}
	ec := lunar.GetEightChar()
	if ec == nil {
		return nil, nil
	}

	return &ganzhi.EightCharacters{
		{Stem: ec.GetYearGan(), Branch: ec.GetYearZhi()},
		{Stem: ec.GetMonthGan(), Branch: ec.GetMonthZhi()},
		{Stem: ec.GetDayGan(), Branch: ec.GetDayZhi()},
	}, nil
}
