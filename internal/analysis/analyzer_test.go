package analysis

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"txScope/internal/chain"
	"txScope/internal/config"
	"txScope/internal/metrics"
	"txScope/internal/model"
	"txScope/internal/price"
	"txScope/internal/protocol"
	"txScope/internal/risk"
)

var (
	gwei       = big.NewInt(1_000_000_000)
	receiverB  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	blockTime  = uint64(1_700_000_000)
	testBlockN = uint64(100)
)

type harness struct {
	analyzer *Analyzer
	dialed   []string
	metrics  *metrics.Metrics
}

// newHarness serves the fake chain from the last endpoint; every earlier
// endpoint hangs until its attempt times out.
func newHarness(t *testing.T, ledger *fakeChain, urls []string, sink *recordingSink) *harness {
	t.Helper()
	h := &harness{metrics: metrics.New(prometheus.NewRegistry())}
	networks := config.NewNetworks(model.NetworkDescriptor{
		ID:             1,
		Name:           "Ethereum",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		RPCURLs:        urls,
		Gas:            model.GasThresholds{LowGwei: 15, HighGwei: 50, ExtremeGwei: 150},
	})
	pool := chain.NewPool(networks, chain.PoolOptions{
		AttemptTimeout: 20 * time.Millisecond,
		Dial: func(ctx context.Context, url string) (chain.Backend, error) {
			h.dialed = append(h.dialed, url)
			if url != urls[len(urls)-1] {
				hung := newFakeChain()
				hung.hang = true
				return hung, nil
			}
			return ledger, nil
		},
	})
	classifier := protocol.NewClassifier(nil)
	scorer := risk.NewScorer(risk.DefaultConfig())
	prices := price.NewAggregator(price.Options{}, nil, classifier, scorer)

	deps := Deps{
		Pool:       pool,
		Classifier: classifier,
		Prices:     prices,
		Scorer:     scorer,
		Metrics:    h.metrics,
		Retry:      chain.RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond},
	}
	if sink != nil {
		deps.Sink = sink
	}
	analyzer, err := NewAnalyzer(deps)
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	h.analyzer = analyzer
	return h
}

func signedTransfer(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, to common.Address, value *big.Int) *types.Transaction {
	t.Helper()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      21000,
		GasPrice: new(big.Int).Mul(big.NewInt(25), gwei),
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(1)), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func oneAndAHalfEther() *big.Int {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	return v
}

// nativeTransferLedger holds one successful 1.5 ETH transfer without logs.
func nativeTransferLedger(t *testing.T) (*fakeChain, *types.Transaction, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	tx := signedTransfer(t, key, 0, receiverB, oneAndAHalfEther())
	ledger := newFakeChain()
	ledger.txs[tx.Hash()] = tx
	ledger.receipts[tx.Hash()] = &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           21000,
		EffectiveGasPrice: new(big.Int).Mul(big.NewInt(25), gwei),
		BlockNumber:       new(big.Int).SetUint64(testBlockN),
		BlockHash:         common.HexToHash("0xb1"),
		TxHash:            tx.Hash(),
	}
	ledger.headers[testBlockN] = &types.Header{Number: new(big.Int).SetUint64(testBlockN), Time: blockTime}
	return ledger, tx, crypto.PubkeyToAddress(key.PublicKey)
}

func TestAnalyzeNativeTransfer(t *testing.T) {
	ledger, tx, sender := nativeTransferLedger(t)
	sink := &recordingSink{}
	h := newHarness(t, ledger, []string{"http://only"}, sink)

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: tx.Hash().Hex()})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if artifact.Kind != model.InputTransaction || artifact.Network.ID != 1 || artifact.Partial {
		t.Fatalf("unexpected artifact header %+v", artifact)
	}

	section := artifact.Transaction
	if section == nil {
		t.Fatalf("transaction section missing")
	}
	if section.From != sender.Hex() || section.To != receiverB.Hex() || section.Status != model.TxStatusSuccess {
		t.Fatalf("unexpected transaction section %+v", section)
	}
	if section.BlockTimestamp != blockTime || section.ValueFormatted != "1.5 ETH" {
		t.Fatalf("unexpected block data %+v", section)
	}
	if len(section.Events.Events) != 1 || section.Events.Events[0].Kind != model.KindNativeTransfer {
		t.Fatalf("expected one native transfer, got %+v", section.Events.Events)
	}
	if section.Events.Events[0].Amount != "1500000000000000000" {
		t.Fatalf("unexpected amount %s", section.Events.Events[0].Amount)
	}

	summary := artifact.Summary
	if summary.FeeWei != "525000000000000" {
		t.Fatalf("unexpected fee %s", summary.FeeWei)
	}
	if summary.Complexity != model.ComplexitySimple || summary.RiskLevel != model.RiskLow {
		t.Fatalf("expected Simple/Low, got %s/%s", summary.Complexity, summary.RiskLevel)
	}
	if summary.TransferCount != 1 || summary.EventCounts[model.KindNativeTransfer] != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.GasEfficiencyPct != 100 {
		t.Fatalf("unexpected efficiency %v", summary.GasEfficiencyPct)
	}
	if artifact.Advanced == nil || len(artifact.Advanced.Risk.Threats) != 0 {
		t.Fatalf("expected no threats, got %+v", artifact.Advanced)
	}
	if artifact.Graph == nil || len(artifact.Graph.Edges) != 1 || !strings.HasPrefix(artifact.Diagram, "graph LR") {
		t.Fatalf("unexpected graph %+v", artifact.Graph)
	}

	if len(sink.artifacts) != 1 || sink.artifacts[0].ID != artifact.ID {
		t.Fatalf("artifact not delivered to sink")
	}
	if got := testutil.ToFloat64(h.metrics.AnalysisRequests.WithLabelValues("transaction-hash", "ok")); got != 1 {
		t.Fatalf("expected one ok analysis metric, got %v", got)
	}
	if !ledger.closed {
		t.Fatalf("connection should be released after the request")
	}
}

func TestAnalyzeFailsOverToThirdEndpoint(t *testing.T) {
	ledger, tx, _ := nativeTransferLedger(t)
	h := newHarness(t, ledger, []string{"http://a", "http://b", "http://c"}, nil)

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: tx.Hash().Hex(), NetworkID: 1})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if strings.Join(h.dialed, ",") != "http://a,http://b,http://c" {
		t.Fatalf("unexpected dial order %v", h.dialed)
	}
	var skipped int
	for _, d := range artifact.Diagnostics {
		if strings.HasPrefix(d, "endpoint ") {
			skipped++
		}
	}
	if skipped != 2 {
		t.Fatalf("expected two endpoint diagnostics, got %v", artifact.Diagnostics)
	}
}

func TestAnalyzeEndpointsExhausted(t *testing.T) {
	ledger := newFakeChain()
	ledger.hang = true
	h := newHarness(t, ledger, []string{"http://a", "http://b"}, nil)

	_, err := h.analyzer.Analyze(context.Background(), Request{Input: "0x" + strings.Repeat("ab", 32)})
	var exhausted *chain.EndpointExhaustedError
	if !errors.As(err, &exhausted) || len(exhausted.Failures) != 2 {
		t.Fatalf("expected EndpointExhaustedError with two failures, got %v", err)
	}
	if errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("exhaustion must stay distinct from not found")
	}
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, newFakeChain(), []string{"http://only"}, nil)

	_, err := h.analyzer.Analyze(context.Background(), Request{Input: "hello"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(h.dialed) != 0 {
		t.Fatalf("invalid input must not touch the network")
	}
}

func TestAnalyzeUnknownNetwork(t *testing.T) {
	h := newHarness(t, newFakeChain(), []string{"http://only"}, nil)

	_, err := h.analyzer.Analyze(context.Background(), Request{Input: "12", NetworkID: 999})
	if !errors.Is(err, chain.ErrUnknownNetwork) {
		t.Fatalf("expected ErrUnknownNetwork, got %v", err)
	}
}

func TestAnalyzeTransactionNotFound(t *testing.T) {
	h := newHarness(t, newFakeChain(), []string{"http://only"}, nil)

	_, err := h.analyzer.Analyze(context.Background(), Request{Input: "0x" + strings.Repeat("0f", 32)})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestAnalyzeReturnsPartialArtifactWhenBudgetRunsOut(t *testing.T) {
	ledger, tx, _ := nativeTransferLedger(t)
	ledger.hangHeaders = true
	h := newHarness(t, ledger, []string{"http://only"}, nil)
	h.analyzer.timeout = 50 * time.Millisecond

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: tx.Hash().Hex()})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !artifact.Partial {
		t.Fatalf("artifact should be marked partial")
	}
	if artifact.Transaction == nil {
		t.Fatalf("fetched transaction should survive")
	}
	if artifact.Advanced != nil || artifact.Graph != nil {
		t.Fatalf("stages after the budget must be absent")
	}
	if artifact.Summary != nil {
		t.Fatalf("partial artifact should carry no summary, got %+v", artifact.Summary)
	}
	raw, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"summary"`, `"risk_level"`, `"complexity"`} {
		if strings.Contains(string(raw), field) {
			t.Fatalf("partial artifact json should omit %s: %s", field, raw)
		}
	}
}

func TestAnalyzeBlock(t *testing.T) {
	key, _ := crypto.GenerateKey()
	first := signedTransfer(t, key, 0, receiverB, oneAndAHalfEther())
	second := signedTransfer(t, key, 1, receiverB, big.NewInt(500))

	header := &types.Header{Number: big.NewInt(42), Time: blockTime, GasLimit: 30_000_000, GasUsed: 42_000, BaseFee: big.NewInt(10)}
	block := types.NewBlockWithHeader(header).WithBody([]*types.Transaction{first, second}, nil)

	ledger := newFakeChain()
	ledger.blocks[42] = block
	ledger.receipts[first.Hash()] = &types.Receipt{Status: types.ReceiptStatusSuccessful, GasUsed: 21000}
	h := newHarness(t, ledger, []string{"http://only"}, nil)

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: "0x2a"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	section := artifact.Block
	if section == nil || section.Number != "42" || section.TxCount != 2 || section.AnalyzedTxs != 2 {
		t.Fatalf("unexpected block section %+v", section)
	}
	if section.TotalValue != "1500000000000000500" || section.BaseFee != "10" {
		t.Fatalf("unexpected totals %+v", section)
	}
	if section.Transactions[0].Unavailable || section.Transactions[0].Status != model.TxStatusSuccess {
		t.Fatalf("first row should be complete: %+v", section.Transactions[0])
	}
	if !section.Transactions[1].Unavailable || section.Transactions[1].Reason == "" {
		t.Fatalf("second row should be unavailable: %+v", section.Transactions[1])
	}
	if artifact.Summary.TransferCount != 2 || artifact.Summary.RiskLevel != model.RiskLow {
		t.Fatalf("unexpected summary %+v", artifact.Summary)
	}
}

func TestAnalyzeBlockLimitsTransactions(t *testing.T) {
	key, _ := crypto.GenerateKey()
	var txs []*types.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, signedTransfer(t, key, uint64(i), receiverB, big.NewInt(1)))
	}
	ledger := newFakeChain()
	ledger.blocks[7] = types.NewBlockWithHeader(&types.Header{Number: big.NewInt(7)}).WithBody(txs, nil)
	h := newHarness(t, ledger, []string{"http://only"}, nil)
	h.analyzer.maxBlockTxs = 3

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: "7"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if artifact.Block.AnalyzedTxs != 3 || len(artifact.Block.Transactions) != 3 || artifact.Block.TxCount != 5 {
		t.Fatalf("unexpected block limits %+v", artifact.Block)
	}
}

func TestAnalyzeMissingBlock(t *testing.T) {
	h := newHarness(t, newFakeChain(), []string{"http://only"}, nil)

	_, err := h.analyzer.Analyze(context.Background(), Request{Input: "123456"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestAnalyzeAddress(t *testing.T) {
	ledger := newFakeChain()
	holder := common.HexToAddress("0x3333333333333333333333333333333333333333")
	ledger.balances[holder] = new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	h := newHarness(t, ledger, []string{"http://only"}, nil)

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: strings.ToLower(holder.Hex())})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	section := artifact.Address
	if section == nil || section.IsContract || section.Nonce != 7 {
		t.Fatalf("unexpected address section %+v", section)
	}
	if section.BalanceFormatted != "2 ETH" {
		t.Fatalf("unexpected balance %s", section.BalanceFormatted)
	}
	if section.BalanceUSD <= 0 || section.PriceConfidence <= 0 || section.PriceConfidence > 0.7 {
		t.Fatalf("fallback valuation expected, got %v at %v", section.BalanceUSD, section.PriceConfidence)
	}
	if artifact.Summary.Complexity != model.ComplexitySimple {
		t.Fatalf("unexpected complexity %s", artifact.Summary.Complexity)
	}
}

func TestAnalyzeKnownProtocolAddress(t *testing.T) {
	ledger := newFakeChain()
	router := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	ledger.code[router] = []byte{0x60, 0x80}
	h := newHarness(t, ledger, []string{"http://only"}, nil)

	artifact, err := h.analyzer.Analyze(context.Background(), Request{Input: router.Hex()})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	section := artifact.Address
	if !section.IsContract || section.Interaction == nil || !section.Interaction.Tag.Verified {
		t.Fatalf("expected a verified protocol tag, got %+v", section)
	}
	if section.Token != nil {
		t.Fatalf("router is not a token")
	}
	if artifact.Summary.InteractionCount != 1 || artifact.Summary.ProtocolCount != 1 {
		t.Fatalf("unexpected summary %+v", artifact.Summary)
	}
}

func TestSinkFailureDoesNotFailAnalysis(t *testing.T) {
	ledger, tx, _ := nativeTransferLedger(t)
	sink := &recordingSink{err: errors.New("disk full")}
	h := newHarness(t, ledger, []string{"http://only"}, sink)

	if _, err := h.analyzer.Analyze(context.Background(), Request{Input: tx.Hash().Hex()}); err != nil {
		t.Fatalf("sink failure leaked into analysis: %v", err)
	}
	if got := testutil.ToFloat64(h.metrics.SinkFailures.WithLabelValues("recording")); got != 1 {
		t.Fatalf("expected sink failure metric, got %v", got)
	}
}

type recordingSink struct {
	artifacts []*model.Artifact
	err       error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Write(ctx context.Context, artifact *model.Artifact) error {
	r.artifacts = append(r.artifacts, artifact)
	return r.err
}

func (r *recordingSink) Close() error { return nil }
