package analysis

import (
	"errors"

	"github.com/ethereum/go-ethereum"
)

var (
	// ErrRecordNotFound means the chain has no transaction or block for the input.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidInput means the input is neither a hash, an address nor a block number.
	ErrInvalidInput = errors.New("invalid input")
)

func notFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
