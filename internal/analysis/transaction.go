package analysis

import (
	"context"
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"txScope/internal/decoder"
	"txScope/internal/flowgraph"
	"txScope/internal/model"
	"txScope/internal/price"
	"txScope/internal/protocol"
	"txScope/internal/units"
)

func (r *run) transaction() error {
	network := r.network()
	hash := common.HexToHash(r.artifact.Input)

	var (
		tx      *types.Transaction
		pending bool
	)
	err := r.fetch("transaction", func(ctx context.Context) error {
		var err error
		tx, pending, err = r.conn.TransactionByHash(ctx, hash)
		return err
	})
	if err != nil {
		return err
	}

	var receipt *types.Receipt
	if !pending {
		err := r.fetch("receipt", func(ctx context.Context) error {
			var err error
			receipt, err = r.conn.TransactionReceipt(ctx, hash)
			return err
		})
		switch {
		case errors.Is(err, ErrRecordNotFound):
			pending = true
			r.diagnose("receipt not available yet")
		case err != nil:
			return err
		}
	}

	section := &model.TransactionSection{
		Hash:           tx.Hash().Hex(),
		Value:          tx.Value().String(),
		ValueFormatted: units.FormatTokenAmount(tx.Value(), network.NativeDecimals) + " " + network.NativeSymbol,
		Nonce:          tx.Nonce(),
		Status:         model.TxStatusPending,
	}
	if tx.To() != nil {
		section.To = tx.To().Hex()
	}
	section.MethodSelector, section.MethodName = r.a.classifier.Method(tx.Data())

	var (
		blockHash common.Hash
		index     uint
	)
	if receipt != nil {
		blockHash, index = receipt.BlockHash, receipt.TransactionIndex
		section.Status = statusOf(receipt)
		if receipt.BlockNumber != nil {
			section.BlockNumber = receipt.BlockNumber.String()
			if header, err := r.conn.HeaderByNumber(r.ctx, receipt.BlockNumber); err == nil {
				section.BlockTimestamp = header.Time
			} else {
				r.diagnose("block header unavailable: %v", err)
			}
		}
		if receipt.ContractAddress != (common.Address{}) {
			section.ContractCreated = receipt.ContractAddress.Hex()
		}
	}

	from, err := r.conn.TransactionSender(r.ctx, tx, blockHash, index)
	if err != nil {
		r.diagnose("sender unavailable: %v", err)
	} else {
		section.From = from.Hex()
	}

	section.Gas = r.gasInfo(tx, receipt)
	r.artifact.Transaction = section
	r.tally.feeWei = section.Gas.FeeWei

	var events model.ExtractedEvents
	ok := r.stage("event decoding", func() {
		events = r.tools.decoder.Decode(r.ctx, decoder.TxInfo{
			From:   from,
			To:     tx.To(),
			Value:  tx.Value(),
			Input:  tx.Data(),
			Native: model.NativeToken(network),
		}, receipt, r.conn)
	})
	if !ok {
		return nil
	}
	section.Events = events
	r.tally.events = events.Events
	r.artifact.Diagnostics = append(r.artifact.Diagnostics, events.Diagnostics...)

	graph := flowgraph.Build(events.Events, events.Contracts...)
	r.artifact.Graph = &graph
	r.artifact.Diagram = flowgraph.Render(graph)

	var logs []*types.Log
	if receipt != nil {
		logs = receipt.Logs
	}
	var advanced model.AdvancedAnalysis
	ok = r.stage("advanced analysis", func() {
		advanced = r.a.prices.AdvancedAnalysis(r.ctx, price.AdvancedInput{
			Network:   network,
			Events:    events.Events,
			Gas:       section.Gas,
			Status:    section.Status,
			Contracts: events.Contracts,
			Tx:        protocol.TxContext{From: from, To: tx.To(), Input: tx.Data()},
			Logs:      logs,
			Caller:    r.conn,
		})
	})
	if !ok {
		return nil
	}
	r.artifact.Advanced = &advanced
	r.tally.interactions = advanced.Interactions
	r.tally.risk = advanced.Risk.OverallLevel
	r.tally.totalUSD = advanced.TotalUSD
	r.tally.feeUSD = advanced.Gas.FeeUSD
	r.tally.efficiency = advanced.Gas.EfficiencyPct
	return nil
}

// gasInfo prefers the effective price from the receipt. Pending transactions
// report zero usage.
func (r *run) gasInfo(tx *types.Transaction, receipt *types.Receipt) model.GasInfo {
	gasPrice := tx.GasPrice()
	if receipt != nil && receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Sign() > 0 {
		gasPrice = receipt.EffectiveGasPrice
	}
	info := model.GasInfo{
		GasUsed:  "0",
		GasLimit: strconv.FormatUint(tx.Gas(), 10),
		GasPrice: gasPrice.String(),
		FeeWei:   "0",
	}
	if receipt != nil {
		used := new(big.Int).SetUint64(receipt.GasUsed)
		info.GasUsed = used.String()
		info.FeeWei = new(big.Int).Mul(used, gasPrice).String()
	}
	if suggested, err := r.conn.SuggestGasPrice(r.ctx); err == nil && suggested != nil {
		info.NetworkGasPrice = suggested.String()
	} else if err != nil {
		r.diagnose("network gas price unavailable: %v", err)
	}
	return info
}

func statusOf(receipt *types.Receipt) model.TxStatus {
	if receipt.Status == types.ReceiptStatusSuccessful {
		return model.TxStatusSuccess
	}
	return model.TxStatusFailed
}
