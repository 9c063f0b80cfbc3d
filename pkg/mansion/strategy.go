package mansion

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/chrissnell/lunarmansion/pkg/calendar"
)

// Strategy names accepted by NewStrategy
const (
	StrategyModulo     = "modulo"
	StrategyTable      = "table"
	StrategySolarTable = "solar-table"
)

// DefaultStrategy is the strategy used when none is configured
const DefaultStrategy = StrategyTable

// Input is everything a strategy may look at
type Input struct {
	SolarYear  int
	SolarMonth int
	SolarDay   int
	LunarDay   int
}

// SolarDate returns the solar date as YYYY-MM-DD, the key used for fallback hashing
func (in Input) SolarDate() string {
	return calendar.NewDate(in.SolarYear, in.SolarMonth, in.SolarDay).String()
}

// Strategy maps an input to a mansion label. ok is false when the input falls
// outside what the strategy can index.
type Strategy interface {
	Name() string
	Label(in Input) (label string, ok bool)
}

// NewStrategy returns the strategy registered under name
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyModulo:
		return moduloStrategy{}, nil
	case StrategyTable, "":
		return tableStrategy{name: StrategyTable, rows: 30}, nil
	case StrategySolarTable:
		return tableStrategy{name: StrategySolarTable, rows: len(tableRows), bySolarDay: true}, nil
	}
	return nil, fmt.Errorf("unknown mansion strategy %q (want one of %v)", name, StrategyNames())
}

// StrategyNames lists the registered strategy names
func StrategyNames() []string {
	names := []string{StrategyModulo, StrategyTable, StrategySolarTable}
	sort.Strings(names)
	return names
}

// ModuloIndex returns (lunarDay-1) mod 28, always in [0,28)
func ModuloIndex(lunarDay int) int {
	i := (lunarDay - 1) % Count
	if i < 0 {
		i += Count
	}
	return i
}

// moduloStrategy depends on the lunar day alone
type moduloStrategy struct{}

func (moduloStrategy) Name() string { return StrategyModulo }

func (moduloStrategy) Label(in Input) (string, bool) {
	return cycle[ModuloIndex(in.LunarDay)], true
}

// tableRows is the day x month mansion table in native script, one rune per
// solar month. Row n is day n+1.
var tableRows = [...]string{
	"虚危室壁奎娄胃昴毕觜参井", // 1
	"危室壁奎娄胃昴毕觜参井鬼", // 2
	"室壁奎娄胃昴毕觜参井鬼柳", // 3
	"壁奎娄胃昴毕觜参井鬼柳星", // 4
	"奎娄胃昴毕觜参井鬼柳星张", // 5
	"娄胃昴毕觜参井鬼柳星张翼", // 6
	"胃昴毕觜参井鬼柳星张翼轸", // 7
	"昴毕觜参井鬼柳星张翼轸角", // 8
	"毕觜参井鬼柳星张翼轸角亢", // 9
	"觜参井鬼柳星张翼轸角亢氐", // 10
	"参井鬼柳星张翼轸角亢氐房", // 11
	"井鬼柳星张翼轸角亢氐房心", // 12
	"鬼柳星张翼轸角亢氐房心尾", // 13
	"柳星张翼轸角亢氐房心尾箕", // 14
	"星张翼轸角亢氐房心尾箕斗", // 15
	"张翼轸角亢氐房心尾箕斗牛", // 16
	"翼轸角亢氐房心尾箕斗牛女", // 17
	"轸角亢氐房心尾箕斗牛女虚", // 18
	"角亢氐房心尾箕斗牛女虚危", // 19
	"亢氐房心尾箕斗牛女虚危室", // 20
	"氐房心尾箕斗牛女虚危室壁", // 21
	"房心尾箕斗牛女虚危室壁奎", // 22
	"心尾箕斗牛女虚危室壁奎娄", // 23
	"尾箕斗牛女虚危室壁奎娄胃", // 24
	"箕斗牛女虚危室壁奎娄胃昴", // 25
	"斗牛女虚危室壁奎娄胃昴毕", // 26
	"牛女虚危室壁奎娄胃昴毕觜", // 27
	"女虚危室壁奎娄胃昴毕觜参", // 28
	"虚危室壁奎娄胃昴毕觜参井", // 29
	"危室壁奎娄胃昴毕觜参井鬼", // 30
	"室壁奎娄胃昴毕觜参井鬼柳", // 31
}

var table [len(tableRows)][12]string

func init() {
	for i, row := range tableRows {
		if n := utf8.RuneCountInString(row); n != 12 {
			panic(fmt.Sprintf("mansion table row %d has %d entries", i+1, n))
		}
		col := 0
		for _, r := range row {
			table[i][col] = string(r)
			col++
		}
	}
}

// TableName returns the native-script name at [row][col] of the fixed table
func TableName(row, col int) (string, bool) {
	if row < 0 || row >= len(table) || col < 0 || col >= 12 {
		return "", false
	}
	return table[row][col], true
}

// tableStrategy indexes the fixed table by [day-1][solar month-1]. The "table"
// variant uses the lunar day for the row and the first 30 rows only; the
// "solar-table" variant uses the solar day and all 31 rows.
type tableStrategy struct {
	name       string
	rows       int
	bySolarDay bool
}

func (s tableStrategy) Name() string { return s.name }

func (s tableStrategy) Label(in Input) (string, bool) {
	day := in.LunarDay
	if s.bySolarDay {
		day = in.SolarDay
	}
	row, col := day-1, in.SolarMonth-1
	if row < 0 || row >= s.rows {
		return "", false
	}
	native, ok := TableName(row, col)
	if !ok {
		return "", false
	}
	return Translate(native)
}
