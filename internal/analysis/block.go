package analysis

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"txScope/internal/chain"
	"txScope/internal/flowgraph"
	"txScope/internal/model"
	"txScope/internal/units"
)

func (r *run) block() error {
	number, err := parseBlockNumber(r.artifact.Input)
	if err != nil {
		return err
	}

	var block *types.Block
	err = r.fetch("block", func(ctx context.Context) error {
		var err error
		block, err = r.conn.BlockByNumber(ctx, number)
		return err
	})
	if err != nil {
		return err
	}

	txs := block.Transactions()
	analyzed := len(txs)
	if analyzed > r.a.maxBlockTxs {
		analyzed = r.a.maxBlockTxs
		r.diagnose("analyzed the first %d of %d transactions", analyzed, len(txs))
	}

	section := &model.BlockSection{
		Number:       block.Number().String(),
		Hash:         block.Hash().Hex(),
		Timestamp:    block.Time(),
		Miner:        block.Coinbase().Hex(),
		GasUsed:      strconv.FormatUint(block.GasUsed(), 10),
		GasLimit:     strconv.FormatUint(block.GasLimit(), 10),
		TxCount:      len(txs),
		AnalyzedTxs:  analyzed,
		Transactions: make([]model.BlockTxRow, analyzed),
	}
	if block.BaseFee() != nil {
		section.BaseFee = block.BaseFee().String()
	}

	total := new(big.Int)
	for _, tx := range txs[:analyzed] {
		total.Add(total, tx.Value())
	}
	section.TotalValue = total.String()
	r.artifact.Block = section

	r.stage("receipt fetch", func() {
		g, gctx := errgroup.WithContext(r.ctx)
		g.SetLimit(r.a.concurrency)
		for i, tx := range txs[:analyzed] {
			i, tx := i, tx
			g.Go(func() error {
				section.Transactions[i] = r.blockRow(gctx, block.Hash(), uint(i), tx)
				return nil
			})
		}
		_ = g.Wait()
	})
	for i := range section.Transactions {
		if section.Transactions[i].Hash == "" {
			section.Transactions[i] = model.BlockTxRow{
				Hash:        txs[i].Hash().Hex(),
				Value:       txs[i].Value().String(),
				Unavailable: true,
				Reason:      "not fetched",
			}
		}
	}

	network := r.network()
	native := model.NativeToken(network)
	var events []model.DecodedEvent
	for _, row := range section.Transactions {
		value := units.ParseBig(row.Value)
		if row.From == "" || row.To == "" || value.Sign() == 0 {
			continue
		}
		events = append(events, model.DecodedEvent{
			Kind:   model.KindNativeTransfer,
			From:   row.From,
			To:     row.To,
			Amount: row.Value,
			Token:  native,
		})
	}
	r.tally.events = events

	graph := flowgraph.Build(events)
	r.artifact.Graph = &graph
	r.artifact.Diagram = flowgraph.Render(graph)

	r.stage("pricing", func() {
		quote := r.a.prices.GetQuote(r.ctx, network.NativeSymbol)
		r.tally.totalUSD = units.ToFloat(total, network.NativeDecimals) * quote.USDPrice
	})
	r.tally.risk = r.a.scorer.Score(events, nil, model.AdvancedAnalysis{}).OverallLevel
	return nil
}

// blockRow fetches sender and receipt for one transaction. A failed receipt
// marks the row unavailable instead of failing the block.
func (r *run) blockRow(ctx context.Context, blockHash common.Hash, index uint, tx *types.Transaction) model.BlockTxRow {
	row := model.BlockTxRow{
		Hash:  tx.Hash().Hex(),
		Value: tx.Value().String(),
	}
	if tx.To() != nil {
		row.To = tx.To().Hex()
	}
	if from, err := r.conn.TransactionSender(ctx, tx, blockHash, index); err == nil {
		row.From = from.Hex()
	}

	var receipt *types.Receipt
	err := chain.WithRetry(ctx, r.a.retry, func(ctx context.Context) error {
		var err error
		receipt, err = r.conn.TransactionReceipt(ctx, tx.Hash())
		return err
	})
	if err != nil {
		row.Unavailable = true
		row.Reason = err.Error()
		return row
	}
	row.Status = statusOf(receipt)
	row.GasUsed = strconv.FormatUint(receipt.GasUsed, 10)
	return row
}
