package decoder

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC-20 and ERC-721 share the Transfer signature, so each lives in its own ABI.
const erc20EventsJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

const erc721EventsJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": true, "name": "tokenId", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

// Some early tokens emit Transfer without indexed parameters.
const legacyTransferJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": false, "name": "from", "type": "address"},
    {"indexed": false, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

const erc1155EventsJSON = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "operator", "type": "address"},
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "TransferSingle", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "operator", "type": "address"},
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "ids", "type": "uint256[]"},
    {"indexed": false, "name": "values", "type": "uint256[]"}
  ], "name": "TransferBatch", "type": "event"}
]`

type eventABIs struct {
	erc20   abi.ABI
	erc721  abi.ABI
	legacy  abi.ABI
	erc1155 abi.ABI
}

var (
	parsedEvents     eventABIs
	parsedEventsOnce sync.Once
	parsedEventsErr  error
)

func eventABIsInstance() (eventABIs, error) {
	parsedEventsOnce.Do(func() {
		var out eventABIs
		for _, item := range []struct {
			dst  *abi.ABI
			json string
		}{
			{&out.erc20, erc20EventsJSON},
			{&out.erc721, erc721EventsJSON},
			{&out.legacy, legacyTransferJSON},
			{&out.erc1155, erc1155EventsJSON},
		} {
			parsed, err := abi.JSON(strings.NewReader(item.json))
			if err != nil {
				parsedEventsErr = err
				return
			}
			*item.dst = parsed
		}
		parsedEvents = out
	})
	return parsedEvents, parsedEventsErr
}

// ERC20ABI exposes the fungible Transfer event for callers building logs.
func ERC20ABI() (abi.ABI, error) {
	parsed, err := eventABIsInstance()
	return parsed.erc20, err
}

// ERC721ABI exposes the non-fungible Transfer event.
func ERC721ABI() (abi.ABI, error) {
	parsed, err := eventABIsInstance()
	return parsed.erc721, err
}

// ERC1155ABI exposes TransferSingle and TransferBatch.
func ERC1155ABI() (abi.ABI, error) {
	parsed, err := eventABIsInstance()
	return parsed.erc1155, err
}
