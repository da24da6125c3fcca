// Package money does cent-level arithmetic for amounts that are stored as
// float64 in tenant snapshots. All sums and splits go through decimals.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to the cent, half away from zero.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// Sum adds amounts without accumulating binary rounding noise.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

// Split divides total into count equal parts rounded to the cent. The parts
// may not add up to total; see DistributeRemainder.
func Split(total float64, count int) []float64 {
	if count < 1 {
		count = 1
	}
	part := decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(count))).Round(2).InexactFloat64()
	out := make([]float64, count)
	for i := range out {
		out[i] = part
	}
	return out
}

// DistributeRemainder puts the whole residual target-sum(amounts) on the last
// element so the result adds up to target exactly. The input is not modified.
func DistributeRemainder(amounts []float64, target float64) []float64 {
	out := make([]float64, len(amounts))
	copy(out, amounts)
	if len(out) == 0 {
		return out
	}

	sum := decimal.Zero
	for _, a := range out {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	diff := decimal.NewFromFloat(target).Sub(sum)
	if diff.IsZero() {
		return out
	}
	last := len(out) - 1
	out[last] = decimal.NewFromFloat(out[last]).Add(diff).InexactFloat64()
	return out
}

// Percent returns part/whole*100, or 0 when whole is zero.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// FormatBRL renders x as "R$ 1.234,56".
func FormatBRL(x float64) string {
	s := decimal.NewFromFloat(x).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
