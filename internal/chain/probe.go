package chain

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// ProbeStatus is the outcome of a capability query.
type ProbeStatus int

const (
	ProbeSupported ProbeStatus = iota
	ProbeUnsupported
	ProbeError
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbeSupported:
		return "supported"
	case ProbeUnsupported:
		return "unsupported"
	default:
		return "error"
	}
}

// ProbeResult carries the return data of a supported call, or the error that
// made the answer unknown.
type ProbeResult struct {
	Status ProbeStatus
	Data   []byte
	Err    error
}

func (r ProbeResult) Supported() bool { return r.Status == ProbeSupported }

// Probe issues an eth_call and classifies the answer. A revert, an RPC-level
// rejection or empty return data means the contract does not support the call.
// Transport failures are reported as ProbeError.
func Probe(ctx context.Context, caller ContractCaller, address common.Address, calldata []byte) ProbeResult {
	if caller == nil {
		return ProbeResult{Status: ProbeError, Err: errors.New("contract caller is nil")}
	}
	msg := ethereum.CallMsg{To: &address, Data: calldata}
	data, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		if isRejection(err) {
			return ProbeResult{Status: ProbeUnsupported, Err: err}
		}
		return ProbeResult{Status: ProbeError, Err: err}
	}
	if len(data) == 0 {
		return ProbeResult{Status: ProbeUnsupported}
	}
	return ProbeResult{Status: ProbeSupported, Data: data}
}

func isRejection(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
