package analysis

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"txScope/internal/model"
)

var (
	txHashPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	addressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	decimalPattern  = regexp.MustCompile(`^[0-9]+$`)
	hexBlockPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,10}$`)
)

// ClassifyInput decides what a user-entered string refers to. Surrounding
// whitespace is ignored; nothing else is normalized.
func ClassifyInput(input string) model.InputKind {
	s := strings.TrimSpace(input)
	switch {
	case txHashPattern.MatchString(s):
		return model.InputTransaction
	case addressPattern.MatchString(s):
		return model.InputAddress
	case decimalPattern.MatchString(s), hexBlockPattern.MatchString(s):
		return model.InputBlock
	default:
		return model.InputInvalid
	}
}

// parseBlockNumber reads a decimal or 0x-prefixed block number.
func parseBlockNumber(input string) (*big.Int, error) {
	s := strings.TrimSpace(input)
	n := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") {
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: block number %q", ErrInvalidInput, input)
	}
	return n, nil
}
