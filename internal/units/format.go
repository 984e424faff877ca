package units

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Options controls how a value is rendered.
type Options struct {
	ThousandsSeparator string `json:"thousands_separator" yaml:"thousands_separator"`
	DecimalPoint       string `json:"decimal_point" yaml:"decimal_point"`
	MinusSign          string `json:"minus_sign" yaml:"minus_sign"`
	UnitSpace          string `json:"unit_space" yaml:"unit_space"`

	// Symbols maps a unit name to its display symbol. Units missing here
	// are displayed by name; an empty symbol hides the symbol and the
	// unit space.
	Symbols map[string]string `json:"symbols" yaml:"symbols"`

	// Decimals is the number of fractional digits per unit, 0 if missing.
	Decimals map[string]int `json:"decimals" yaml:"decimals"`
}

// DefaultOptions returns the default English formatting with symbols and
// decimals for the metric and imperial tables.
func DefaultOptions() Options {
	return Options{
		ThousandsSeparator: ",",
		DecimalPoint:       ".",
		MinusSign:          "-",
		UnitSpace:          " ",
		Symbols: map[string]string{
			"meter":           "m",
			"kilometer":       "km",
			"squareMeter":     "m²",
			"hectare":         "ha",
			"squareKilometer": "km²",
			"foot":            "ft",
			"mile":            "mi",
			"squareFoot":      "sq ft",
			"acre":            "acres",
			"squareMile":      "sq mi",
		},
		Decimals: map[string]int{
			"meter":           0,
			"kilometer":       2,
			"squareMeter":     0,
			"hectare":         2,
			"squareKilometer": 2,
			"foot":            0,
			"mile":            2,
			"squareFoot":      0,
			"acre":            2,
			"squareMile":      2,
		},
	}
}

// Clone returns a copy that shares no maps with o.
func (o Options) Clone() Options {
	out := o
	out.Symbols = make(map[string]string, len(o.Symbols))
	for k, v := range o.Symbols {
		out.Symbols[k] = v
	}
	out.Decimals = make(map[string]int, len(o.Decimals))
	for k, v := range o.Decimals {
		out.Decimals[k] = v
	}
	return out
}

// Validate rejects negative decimal counts and counts beyond what a
// float64 can represent.
func (o Options) Validate() error {
	for unit, d := range o.Decimals {
		if d < 0 || d > maxDecimals {
			return fmt.Errorf("%w: decimals for %q is %d, must be 0..%d", ErrInvalidConfig, unit, d, maxDecimals)
		}
	}
	return nil
}

const maxDecimals = 15

// Symbol returns the display symbol of unit and whether one is shown.
func (o Options) Symbol(unit string) (string, bool) {
	if s, ok := o.Symbols[unit]; ok {
		return s, s != ""
	}
	return unit, unit != ""
}

// Format renders value expressed in unit of the given size: value/size is
// rounded half away from zero to the unit's decimals, the integer part is
// grouped by three digits and the unit symbol is appended.
func Format(value float64, unit string, size float64, opts Options) string {
	if size == 0 {
		size = 1
	}
	number := value / size
	if math.IsNaN(number) {
		number = 0
	}

	decimals := opts.Decimals[unit]
	if decimals < 0 {
		decimals = 0
	} else if decimals > maxDecimals {
		decimals = maxDecimals
	}

	digits := roundedDigits(math.Abs(number), decimals)
	intPart, fracPart := digits[:len(digits)-decimals], digits[len(digits)-decimals:]

	var b strings.Builder
	if number < 0 && strings.Trim(digits, "0") != "" {
		b.WriteString(opts.MinusSign)
	}
	b.WriteString(groupThousands(intPart, opts.ThousandsSeparator))
	if decimals > 0 {
		b.WriteString(opts.DecimalPoint)
		b.WriteString(fracPart)
	}
	if symbol, ok := opts.Symbol(unit); ok {
		b.WriteString(opts.UnitSpace)
		b.WriteString(symbol)
	}

	return b.String()
}

// roundedDigits returns num*10^decimals rounded half away from zero as a
// decimal digit string with at least decimals+1 digits. Rounding works on
// the exact binary value of num, so 1.045 (stored as 1.04499...) rounds
// down to 1.04.
func roundedDigits(num float64, decimals int) string {
	if math.IsInf(num, 0) {
		num = math.MaxFloat64
	}

	r := new(big.Rat).SetFloat64(num)
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))

	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}

	s := q.String()
	if pad := decimals + 1 - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// groupThousands inserts sep between groups of three digits counted from
// the right.
func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
