// Package units converts raw on-chain integers into display values.
package units

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// FormatTokenAmount renders value scaled down by decimals without losing precision.
func FormatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	if sign < 0 {
		return "-" + text
	}
	return text
}

// ToFloat converts a raw integer amount into a float of whole units.
func ToFloat(value *big.Int, decimals uint8) float64 {
	if value == nil {
		return 0
	}
	f := new(big.Float).SetInt(value)
	if decimals > 0 {
		denom := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
		f.Quo(f, denom)
	}
	out, _ := f.Float64()
	return out
}

// ParseBig parses a decimal string, returning zero for anything unparsable.
func ParseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// WeiToGwei converts a wei amount to gwei.
func WeiToGwei(wei *big.Int) float64 {
	return ToFloat(wei, 9)
}

// HumanScale shortens a number with K or M suffixes past one thousand and one million.
func HumanScale(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return trimFloat(v/1_000_000, 2) + "M"
	case abs >= 1_000:
		return trimFloat(v/1_000, 2) + "K"
	case abs >= 1 || abs == 0:
		return trimFloat(v, 2)
	default:
		return trimFloat(v, 6)
	}
}

func trimFloat(v float64, precision int) string {
	text := fmt.Sprintf("%.*f", precision, v)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	if text == "-0" {
		return "0"
	}
	return text
}
