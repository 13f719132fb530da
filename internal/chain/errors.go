package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownNetwork is returned when a network id is not registered.
var ErrUnknownNetwork = errors.New("unknown network")

// EndpointFailure records why one endpoint was rejected during acquisition.
type EndpointFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// EndpointExhaustedError is returned when no endpoint of a network answered.
type EndpointExhaustedError struct {
	NetworkID uint64
	Failures  []EndpointFailure
}

func (e *EndpointExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("network %d: no rpc endpoints configured", e.NetworkID)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.URL+": "+f.Reason)
	}
	return fmt.Sprintf("network %d: all %d rpc endpoints failed: %s", e.NetworkID, len(e.Failures), strings.Join(parts, "; "))
}
