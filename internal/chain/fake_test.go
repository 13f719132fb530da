package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend answers ChainID and CallContract; everything else is unused here.
type fakeBackend struct {
	chainID  *big.Int
	chainErr error
	hang     bool
	callData []byte
	callErr  error
	closed   bool
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.chainID, f.chainErr
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return f.callData, f.callErr
}

func (f *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}


func (f *fakeBackend) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	return nil, ethereum.NotFound
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return nil, ethereum.NotFound
}

func (f *fakeBackend) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	return nil, false, ethereum.NotFound
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (f *fakeBackend) TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error) {
	return common.Address{}, ethereum.NotFound
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return new(big.Int), nil
}

func (f *fakeBackend) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return 0, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return new(big.Int), nil }

func (f *fakeBackend) Close() { f.closed = true }
