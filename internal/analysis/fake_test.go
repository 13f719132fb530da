package analysis

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain is an in-memory ledger behind the chain.Backend interface.
type fakeChain struct {
	mu          sync.Mutex
	chainID     *big.Int
	hang        bool
	txs         map[common.Hash]*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	blocks      map[uint64]*types.Block
	headers     map[uint64]*types.Header
	hangHeaders bool
	balances    map[common.Address]*big.Int
	code        map[common.Address][]byte
	gasPrice    *big.Int
	closed      bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  big.NewInt(1),
		txs:      map[common.Hash]*types.Transaction{},
		receipts: map[common.Hash]*types.Receipt{},
		blocks:   map[uint64]*types.Block{},
		headers:  map[uint64]*types.Header{},
		balances: map[common.Address]*big.Int{},
		code:     map[common.Address][]byte{},
		gasPrice: big.NewInt(25_000_000_000),
	}
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.chainID, nil
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeChain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return f.code[account], nil
}


func (f *fakeChain) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	if block, ok := f.blocks[number.Uint64()]; ok {
		return block, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.hangHeaders {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if header, ok := f.headers[number.Uint64()]; ok {
		return header, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if tx, ok := f.txs[hash]; ok {
		return tx, false, nil
	}
	return nil, false, ethereum.NotFound
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := f.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error) {
	return types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
}

func (f *fakeChain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if balance, ok := f.balances[account]; ok {
		return balance, nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return 7, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return f.gasPrice, nil }

func (f *fakeChain) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
