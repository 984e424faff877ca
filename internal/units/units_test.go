package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		value    float64
		wantName string
		wantSize float64
	}{
		{999, "meter", 1},
		{1000, "kilometer", 1000},
		{0.5, "meter", 1},
		{0, "meter", 1},
		{-20, "meter", 1},
		{123456, "kilometer", 1000},
	}

	for _, tt := range tests {
		name, size := MetricDistance.Select(tt.value)
		assert.Equal(t, tt.wantName, name, "value %v", tt.value)
		assert.Equal(t, tt.wantSize, size, "value %v", tt.value)
	}
}

func TestSelectArea(t *testing.T) {
	name, _ := MetricArea.Select(9999)
	assert.Equal(t, "squareMeter", name)
	name, _ = MetricArea.Select(10000)
	assert.Equal(t, "hectare", name)
	name, _ = MetricArea.Select(2.5e6)
	assert.Equal(t, "squareKilometer", name)
	name, _ = ImperialArea.Select(0.01)
	assert.Equal(t, "squareFoot", name)
}

func TestSelectTieBreakByName(t *testing.T) {
	table := Table{"metre": 1, "meter": 1, "klick": 1000, "kilometer": 1000}

	for i := 0; i < 20; i++ {
		name, _ := table.Select(5)
		assert.Equal(t, "meter", name)
		name, _ = table.Select(5000)
		assert.Equal(t, "kilometer", name)
		name, _ = table.Select(0.1)
		assert.Equal(t, "meter", name)
	}
}

func TestSelectNaN(t *testing.T) {
	name, size := MetricDistance.Select(math.NaN())
	assert.Equal(t, "meter", name)
	assert.Equal(t, 1.0, size)
}

func TestTableValidate(t *testing.T) {
	assert.NoError(t, MetricDistance.Validate())
	assert.ErrorIs(t, Table{}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Table{"meter": 0}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Table{"meter": -1}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Table{"meter": math.NaN()}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Table{"meter": math.Inf(1)}.Validate(), ErrInvalidConfig)
}

func TestFormat(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name  string
		value float64
		unit  string
		size  float64
		want  string
	}{
		{"grouped meters", 1234567.891, "meter", 1, "1,234,568 m"},
		{"zero", 0, "meter", 1, "0 m"},
		{"small", 12.4, "meter", 1, "12 m"},
		{"exactly three digits", 999, "meter", 1, "999 m"},
		{"four digits", 1000, "meter", 1, "1,000 m"},
		{"kilometers", 1234.5, "kilometer", 1000, "1.23 km"},
		{"round half away", 1235, "kilometer", 1000, "1.24 km"},
		{"exact tie rounds up", 1125, "kilometer", 1000, "1.13 km"},
		{"below tie in binary", 1045, "kilometer", 1000, "1.04 km"},
		{"below tie in binary larger", 2675, "kilometer", 1000, "2.67 km"},
		{"half meter", 2.5, "meter", 1, "3 m"},
		{"negative half meter", -2.5, "meter", 1, "-3 m"},
		{"carry into integer", 1999.6, "kilometer", 1000, "2.00 km"},
		{"large kilometers", 12345678, "kilometer", 1000, "12,345.68 km"},
		{"hectare", 25000, "hectare", 1e4, "2.50 ha"},
		{"square km", 1e6, "squareKilometer", 1e6, "1.00 km²"},
		{"unknown unit uses name", 7, "league", 1, "7 league"},
		{"negative", -1500, "meter", 1, "-1,500 m"},
		{"negative rounds to zero", -0.2, "meter", 1, "0 m"},
		{"nan", math.NaN(), "meter", 1, "0 m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value, tt.unit, tt.size, opts))
		})
	}
}

func TestFormatNegativeOneDecimal(t *testing.T) {
	opts := DefaultOptions()
	opts.Decimals["meter"] = 1

	got := Format(-5.5, "meter", 1, opts)
	assert.Equal(t, "-5.5 m", got)

	opts.MinusSign = "−"
	assert.Equal(t, "−5.5 m", Format(-5.5, "meter", 1, opts))
}

func TestFormatLocale(t *testing.T) {
	opts := DefaultOptions()
	opts.ThousandsSeparator = "."
	opts.DecimalPoint = ","
	opts.UnitSpace = " "

	assert.Equal(t, "1.234,57 km", Format(1234567, "kilometer", 1000, opts))
	assert.Equal(t, "1.234.567 m", Format(1234567, "meter", 1, opts))
}

func TestFormatEmptySymbol(t *testing.T) {
	opts := DefaultOptions()
	opts.Symbols["meter"] = ""

	assert.Equal(t, "1,500", Format(1500, "meter", 1, opts))
}

func TestFormatZeroDecimalsHasNoPoint(t *testing.T) {
	opts := DefaultOptions()
	assert.NotContains(t, Format(12.75, "meter", 1, opts), ".")
}

func TestRoundedDigits(t *testing.T) {
	tests := []struct {
		num      float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{0.004, 2, "000"},
		{0.005, 2, "001"},
		{1.005, 2, "100"},
		{8.345, 2, "835"},
		{0.125, 2, "013"},
		{123.456, 0, "123"},
		{1e21, 0, "1000000000000000000000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundedDigits(tt.num, tt.decimals), "%v at %d decimals", tt.num, tt.decimals)
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1", groupThousands("1", ","))
	assert.Equal(t, "123", groupThousands("123", ","))
	assert.Equal(t, "12,345", groupThousands("12345", ","))
	assert.Equal(t, "123,456", groupThousands("123456", ","))
	assert.Equal(t, "1'234'567'890", groupThousands("1234567890", "'"))
	assert.Equal(t, "1234567", groupThousands("1234567", ""))
}

func TestFormatter(t *testing.T) {
	f, err := NewFormatter(MetricDistance, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "999 m", f.String(999))
	assert.Equal(t, "1.00 km", f.String(1000))
	assert.Equal(t, "1 m", f.String(0.5))

	imperial, err := NewFormatter(ImperialDistance, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "1.00 mi", imperial.String(1609.344))
	assert.Equal(t, "3 ft", imperial.String(1))
}

func TestNewFormatterInvalid(t *testing.T) {
	_, err := NewFormatter(Table{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	opts := DefaultOptions()
	opts.Decimals["meter"] = -1
	_, err = NewFormatter(MetricDistance, opts)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFormatterIsolatedFromCaller(t *testing.T) {
	table := Table{"meter": 1, "kilometer": 1000}
	opts := DefaultOptions()
	f, err := NewFormatter(table, opts)
	require.NoError(t, err)

	table["kilometer"] = 1
	opts.Symbols["meter"] = "metres"

	assert.Equal(t, "12 m", f.String(12))
}
