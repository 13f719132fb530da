// Package decoder turns transaction receipts into typed value movements.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"txScope/internal/chain"
	"txScope/internal/metrics"
	"txScope/internal/model"
)

// MetadataResolver resolves token metadata; it never fails.
type MetadataResolver interface {
	Resolve(ctx context.Context, address common.Address, caller chain.ContractCaller) model.TokenMetadata
}

// TxInfo is the part of a transaction the decoder needs.
type TxInfo struct {
	From   common.Address
	To     *common.Address
	Value  *big.Int
	Input  []byte
	Native model.TokenMetadata
}

var errUnrecognized = errors.New("unrecognized event signature")

// Decoder extracts DecodedEvents from receipt logs.
type Decoder struct {
	resolver MetadataResolver
	abis     eventABIs
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(resolver MetadataResolver, logger *zap.Logger, m *metrics.Metrics) (*Decoder, error) {
	if resolver == nil {
		return nil, fmt.Errorf("metadata resolver is nil")
	}
	abis, err := eventABIsInstance()
	if err != nil {
		return nil, fmt.Errorf("parse event abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		resolver: resolver,
		abis:     abis,
		logger:   logger.With(zap.String("component", "event_decoder")),
		metrics:  m,
	}, nil
}

// Decode synthesizes the native transfer, then decodes each log in order.
// A log that cannot be decoded is kept in OtherEvents with the reason.
func (d *Decoder) Decode(ctx context.Context, tx TxInfo, receipt *types.Receipt, caller chain.ContractCaller) model.ExtractedEvents {
	out := model.ExtractedEvents{
		Events:      []model.DecodedEvent{},
		OtherEvents: []model.OtherEvent{},
		Contracts:   []string{},
	}
	seen := make(map[common.Address]struct{})
	touch := func(addr common.Address) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out.Contracts = append(out.Contracts, addr.Hex())
	}

	if tx.Value != nil && tx.Value.Sign() > 0 {
		to := ""
		if tx.To != nil {
			to = tx.To.Hex()
		} else if receipt != nil && receipt.ContractAddress != (common.Address{}) {
			to = receipt.ContractAddress.Hex()
		}
		out.Events = append(out.Events, model.DecodedEvent{
			Kind:   model.KindNativeTransfer,
			From:   tx.From.Hex(),
			To:     to,
			Amount: tx.Value.String(),
			Token:  tx.Native,
		})
	}
	if tx.To != nil && len(tx.Input) > 0 {
		touch(*tx.To)
	}
	if receipt == nil {
		return out
	}
	if receipt.ContractAddress != (common.Address{}) {
		touch(receipt.ContractAddress)
	}

	for _, lg := range receipt.Logs {
		if lg == nil {
			continue
		}
		touch(lg.Address)
		events, err := d.decodeLog(ctx, lg, caller)
		if err != nil {
			reason := err.Error()
			if !errors.Is(err, errUnrecognized) {
				d.metrics.Degraded()
				d.logger.Debug("log demoted to other events",
					zap.String("address", lg.Address.Hex()),
					zap.Uint("log_index", lg.Index),
					zap.Error(err),
				)
				out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("log %d: %s", lg.Index, reason))
			}
			out.OtherEvents = append(out.OtherEvents, otherEvent(lg, reason))
			continue
		}
		out.Events = append(out.Events, events...)
	}
	return out
}

func (d *Decoder) decodeLog(ctx context.Context, lg *types.Log, caller chain.ContractCaller) ([]model.DecodedEvent, error) {
	if len(lg.Topics) == 0 {
		return nil, errUnrecognized
	}
	topic0 := lg.Topics[0]
	index := lg.Index

	switch topic0 {
	case d.abis.erc20.Events["Transfer"].ID:
		switch len(lg.Topics) {
		case 3:
			return d.decodeFungible(ctx, lg, caller, &index)
		case 4:
			return d.decodeNFT(ctx, lg, caller, &index)
		case 1:
			return d.decodeLegacy(ctx, lg, caller, &index)
		default:
			return nil, fmt.Errorf("transfer with %d topics", len(lg.Topics))
		}
	case d.abis.erc1155.Events["TransferSingle"].ID:
		return d.decodeSingle(ctx, lg, caller, &index)
	case d.abis.erc1155.Events["TransferBatch"].ID:
		return d.decodeBatch(ctx, lg, caller, &index)
	default:
		return nil, errUnrecognized
	}
}

func (d *Decoder) decodeFungible(ctx context.Context, lg *types.Log, caller chain.ContractCaller, index *uint) ([]model.DecodedEvent, error) {
	event := d.abis.erc20.Events["Transfer"]
	var indexed struct {
		From common.Address
		To   common.Address
	}
	if err := parseTopics(&indexed, event, lg.Topics); err != nil {
		return nil, err
	}
	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack transfer: %w", err)
	}
	value, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	return []model.DecodedEvent{{
		Kind:     model.KindTokenTransfer,
		From:     indexed.From.Hex(),
		To:       indexed.To.Hex(),
		Amount:   value.String(),
		Token:    d.resolver.Resolve(ctx, lg.Address, caller),
		LogIndex: index,
	}}, nil
}

func (d *Decoder) decodeNFT(ctx context.Context, lg *types.Log, caller chain.ContractCaller, index *uint) ([]model.DecodedEvent, error) {
	event := d.abis.erc721.Events["Transfer"]
	var indexed struct {
		From    common.Address
		To      common.Address
		TokenId *big.Int
	}
	if err := parseTopics(&indexed, event, lg.Topics); err != nil {
		return nil, err
	}
	return []model.DecodedEvent{{
		Kind:     model.KindNFTTransfer,
		From:     indexed.From.Hex(),
		To:       indexed.To.Hex(),
		Amount:   "1",
		TokenID:  indexed.TokenId.String(),
		Token:    d.resolver.Resolve(ctx, lg.Address, caller),
		LogIndex: index,
	}}, nil
}

// decodeLegacy handles Transfer logs with every field in data. Whether the
// value is an amount or a token id cannot be told apart, so the event stays
// Unclassified.
func (d *Decoder) decodeLegacy(ctx context.Context, lg *types.Log, caller chain.ContractCaller, index *uint) ([]model.DecodedEvent, error) {
	values, err := d.abis.legacy.Events["Transfer"].Inputs.Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack legacy transfer: %w", err)
	}
	from, ok1 := values[0].(common.Address)
	to, ok2 := values[1].(common.Address)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("legacy transfer: unexpected address types")
	}
	value, err := asBigInt(values[2])
	if err != nil {
		return nil, err
	}
	return []model.DecodedEvent{{
		Kind:     model.KindUnclassified,
		From:     from.Hex(),
		To:       to.Hex(),
		Amount:   value.String(),
		Token:    d.resolver.Resolve(ctx, lg.Address, caller),
		LogIndex: index,
	}}, nil
}

type transferParties struct {
	Operator common.Address
	From     common.Address
	To       common.Address
}

func (d *Decoder) decodeSingle(ctx context.Context, lg *types.Log, caller chain.ContractCaller, index *uint) ([]model.DecodedEvent, error) {
	event := d.abis.erc1155.Events["TransferSingle"]
	var parties transferParties
	if err := parseTopics(&parties, event, lg.Topics); err != nil {
		return nil, err
	}
	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack transfer single: %w", err)
	}
	id, err := asBigInt(values[0])
	if err != nil {
		return nil, err
	}
	amount, err := asBigInt(values[1])
	if err != nil {
		return nil, err
	}
	return []model.DecodedEvent{{
		Kind:     model.KindMultiTokenTransfer,
		From:     parties.From.Hex(),
		To:       parties.To.Hex(),
		Amount:   amount.String(),
		TokenID:  id.String(),
		Token:    d.resolver.Resolve(ctx, lg.Address, caller),
		LogIndex: index,
	}}, nil
}

func (d *Decoder) decodeBatch(ctx context.Context, lg *types.Log, caller chain.ContractCaller, index *uint) ([]model.DecodedEvent, error) {
	event := d.abis.erc1155.Events["TransferBatch"]
	var parties transferParties
	if err := parseTopics(&parties, event, lg.Topics); err != nil {
		return nil, err
	}
	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack transfer batch: %w", err)
	}
	ids, ok1 := values[0].([]*big.Int)
	amounts, ok2 := values[1].([]*big.Int)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("transfer batch: unexpected array types")
	}
	if len(ids) != len(amounts) {
		return nil, fmt.Errorf("transfer batch: %d ids but %d values", len(ids), len(amounts))
	}

	token := d.resolver.Resolve(ctx, lg.Address, caller)
	events := make([]model.DecodedEvent, 0, len(ids))
	for i := range ids {
		events = append(events, model.DecodedEvent{
			Kind:     model.KindMultiTokenTransfer,
			From:     parties.From.Hex(),
			To:       parties.To.Hex(),
			Amount:   amounts[i].String(),
			TokenID:  ids[i].String(),
			Token:    token,
			LogIndex: index,
		})
	}
	return events, nil
}

func parseTopics(out interface{}, event abi.Event, topics []common.Hash) error {
	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(topics))
	}
	if err := abi.ParseTopics(out, indexed, topics[1:]); err != nil {
		return fmt.Errorf("parse topics: %w", err)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func otherEvent(lg *types.Log, reason string) model.OtherEvent {
	topics := make([]string, 0, len(lg.Topics))
	for _, topic := range lg.Topics {
		topics = append(topics, strings.ToLower(topic.Hex()))
	}
	return model.OtherEvent{
		Address:  lg.Address.Hex(),
		Topics:   topics,
		Data:     hexutil.Encode(lg.Data),
		LogIndex: lg.Index,
		Reason:   reason,
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
