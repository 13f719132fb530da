package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }

func TestProbeClassification(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	cases := []struct {
		name    string
		backend *fakeBackend
		want    ProbeStatus
	}{
		{"data", &fakeBackend{callData: []byte{1}}, ProbeSupported},
		{"empty", &fakeBackend{}, ProbeUnsupported},
		{"rpc error", &fakeBackend{callErr: revertError{}}, ProbeUnsupported},
		{"revert text", &fakeBackend{callErr: errors.New("call failed: execution reverted")}, ProbeUnsupported},
		{"transport", &fakeBackend{callErr: errors.New("dial tcp: i/o timeout")}, ProbeError},
		{"deadline", &fakeBackend{callErr: context.DeadlineExceeded}, ProbeError},
	}
	for _, tc := range cases {
		if got := Probe(context.Background(), tc.backend, addr, []byte{0x01}); got.Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got.Status)
		}
	}
	if got := Probe(context.Background(), nil, addr, nil); got.Status != ProbeError {
		t.Fatalf("nil caller should be an error")
	}
}

func TestWithRetrySkipsNotFound(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryPolicy{MaxRetries: 3, BaseDelay: 1}, func(context.Context) error {
		calls++
		return ethereum.NotFound
	})
	if !errors.Is(err, ethereum.NotFound) || calls != 1 {
		t.Fatalf("expected single NotFound attempt, got %d calls err=%v", calls, err)
	}
}

func TestWithRetryRetriesTransient(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryPolicy{MaxRetries: 3, BaseDelay: 1}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got %d calls err=%v", calls, err)
	}
}
