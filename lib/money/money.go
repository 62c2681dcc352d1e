// Package money holds the fixed-scale decimal types used by every monetary and
// quantity column. Values keep their declared scale through JSON and SQL and are
// never converted to binary floating point.
package money

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/counselhub/counselhub.go/common"
	"github.com/shopspring/decimal"
)

// Amount is a currency value with 2 decimal places.
type Amount struct{ decimal.Decimal }

// Hours is a duration in tenths of an hour (6 minute increments).
type Hours struct{ decimal.Decimal }

// Quantity is an invoiced unit count with 3 decimal places.
type Quantity struct{ decimal.Decimal }

// Percent is a percentage with 2 decimal places (10.00 means ten percent).
type Percent struct{ decimal.Decimal }

var hundred = decimal.NewFromInt(100)

func ParseAmount(s string) (Amount, error) {
	d, err := parse(s, common.ScaleAmount)
	return Amount{d}, err
}

func ParseHours(s string) (Hours, error) {
	d, err := parse(s, common.ScaleHours)
	return Hours{d}, err
}

func ParseQuantity(s string) (Quantity, error) {
	d, err := parse(s, common.ScaleQuantity)
	return Quantity{d}, err
}

func ParsePercent(s string) (Percent, error) {
	d, err := parse(s, common.ScalePercent)
	return Percent{d}, err
}

// MustAmount is ParseAmount for constants and tests.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func MustHours(s string) Hours {
	h, err := ParseHours(s)
	if err != nil {
		panic(err)
	}
	return h
}

func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func MustPercent(s string) Percent {
	p, err := ParsePercent(s)
	if err != nil {
		panic(err)
	}
	return p
}

// AmountOf rounds d half away from zero to 2 places. It is used for values the
// system derives itself (products and sums), never for caller input.
func AmountOf(d decimal.Decimal) Amount {
	return Amount{d.Round(common.ScaleAmount)}
}

// ExactAmount converts d without rounding.
func ExactAmount(field string, d decimal.Decimal) (Amount, error) {
	f, err := fit(field, d, common.ScaleAmount)
	return Amount{f}, err
}

func ZeroAmount() Amount { return Amount{decimal.Zero} }

// SumAmounts adds amounts; the result keeps scale 2.
func SumAmounts(amounts ...Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.Decimal)
	}
	return AmountOf(total)
}

func (a Amount) Add(b Amount) Amount { return AmountOf(a.Decimal.Add(b.Decimal)) }
func (a Amount) Sub(b Amount) Amount { return AmountOf(a.Decimal.Sub(b.Decimal)) }
func (a Amount) Neg() Amount         { return Amount{a.Decimal.Neg()} }

// Times returns a × h rounded to the cent, e.g. 150.00 × 2.5 = 375.00.
func (a Amount) Times(h Hours) Amount { return AmountOf(a.Decimal.Mul(h.Decimal)) }

// Marked returns a increased by p percent, e.g. 100.00 marked 10 = 110.00.
func (a Amount) Marked(p Percent) Amount {
	factor := decimal.NewFromInt(1).Add(p.Decimal.Div(hundred))
	return AmountOf(a.Decimal.Mul(factor))
}

// Of returns p percent of a.
func (p Percent) Of(a Amount) Amount { return AmountOf(a.Decimal.Mul(p.Decimal).Div(hundred)) }

// Extend returns q × rate rounded to the cent.
func (q Quantity) Extend(rate Amount) Amount { return AmountOf(q.Decimal.Mul(rate.Decimal)) }

// QuantityOfHours widens an Hours value to line-item precision.
func QuantityOfHours(h Hours) Quantity { return Quantity{h.Decimal.Round(common.ScaleQuantity)} }

func (a Amount) String() string   { return a.StringFixed(common.ScaleAmount) }
func (h Hours) String() string    { return h.StringFixed(common.ScaleHours) }
func (q Quantity) String() string { return q.StringFixed(common.ScaleQuantity) }
func (p Percent) String() string  { return p.StringFixed(common.ScalePercent) }

func (a Amount) MarshalJSON() ([]byte, error)   { return quote(a.String()), nil }
func (h Hours) MarshalJSON() ([]byte, error)    { return quote(h.String()), nil }
func (q Quantity) MarshalJSON() ([]byte, error) { return quote(q.String()), nil }
func (p Percent) MarshalJSON() ([]byte, error)  { return quote(p.String()), nil }

func (a *Amount) UnmarshalJSON(b []byte) error {
	return unmarshal(b, &a.Decimal, common.ScaleAmount)
}

func (h *Hours) UnmarshalJSON(b []byte) error {
	return unmarshal(b, &h.Decimal, common.ScaleHours)
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	return unmarshal(b, &q.Decimal, common.ScaleQuantity)
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	return unmarshal(b, &p.Decimal, common.ScalePercent)
}

func (a Amount) Value() (driver.Value, error)   { return a.String(), nil }
func (h Hours) Value() (driver.Value, error)    { return h.String(), nil }
func (q Quantity) Value() (driver.Value, error) { return q.String(), nil }
func (p Percent) Value() (driver.Value, error)  { return p.String(), nil }

func (a *Amount) Scan(value interface{}) error {
	return scan(value, &a.Decimal, common.ScaleAmount)
}

func (h *Hours) Scan(value interface{}) error {
	return scan(value, &h.Decimal, common.ScaleHours)
}

func (q *Quantity) Scan(value interface{}) error {
	return scan(value, &q.Decimal, common.ScaleQuantity)
}

func (p *Percent) Scan(value interface{}) error {
	return scan(value, &p.Decimal, common.ScalePercent)
}

func parse(s string, scale int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewValidationError("", "decimal", "%q is not a decimal number", s)
	}
	return fit("", d, scale)
}

func fit(field string, d decimal.Decimal, scale int32) (decimal.Decimal, error) {
	rounded := d.Round(scale)
	if !rounded.Equal(d) {
		return decimal.Zero, &common.PrecisionLossError{Field: field, Value: d.String(), Scale: scale}
	}
	return rounded, nil
}

func unmarshal(b []byte, dst *decimal.Decimal, scale int32) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	d, err := parse(s, scale)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// scan normalises whatever the driver returns (numeric text on Postgres, float
// or integer on SQLite) back to the declared scale.
func scan(value interface{}, dst *decimal.Decimal, scale int32) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("money: scan %T: %w", value, err)
	}
	*dst = d.Round(scale)
	return nil
}

func quote(s string) []byte {
	return []byte(`"` + s + `"`)
}
