package units

import (
	"math/big"
	"testing"
)

func TestFormatTokenAmount(t *testing.T) {
	value, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatTokenAmount(value, 18); got != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
	if got := FormatTokenAmount(big.NewInt(-2_000_000), 6); got != "-2" {
		t.Fatalf("expected -2, got %s", got)
	}
	if got := FormatTokenAmount(big.NewInt(42), 0); got != "42" {
		t.Fatalf("expected 42, got %s", got)
	}
}

func TestHumanScale(t *testing.T) {
	cases := map[float64]string{
		0:         "0",
		12.5:      "12.5",
		1500:      "1.5K",
		2_340_000: "2.34M",
		0.000123:  "0.000123",
	}
	for in, want := range cases {
		if got := HumanScale(in); got != want {
			t.Fatalf("HumanScale(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestToFloatAndGwei(t *testing.T) {
	if got := WeiToGwei(big.NewInt(25_000_000_000)); got != 25 {
		t.Fatalf("expected 25 gwei, got %v", got)
	}
	if got := ParseBig("nope"); got.Sign() != 0 {
		t.Fatalf("expected zero for invalid input")
	}
}
