package risk

import (
	"testing"

	"txScope/internal/model"
)

func threat(level model.RiskLevel) model.Threat {
	return model.Threat{Category: model.ThreatTransaction, Severity: level}
}

func TestLevelReduction(t *testing.T) {
	cases := []struct {
		threats []model.Threat
		want    model.RiskLevel
	}{
		{nil, model.RiskLow},
		{[]model.Threat{threat(model.RiskLow)}, model.RiskLow},
		{[]model.Threat{threat(model.RiskMedium)}, model.RiskMedium},
		{[]model.Threat{threat(model.RiskMedium), threat(model.RiskMedium), threat(model.RiskMedium)}, model.RiskHigh},
		{[]model.Threat{threat(model.RiskHigh)}, model.RiskHigh},
		{[]model.Threat{threat(model.RiskHigh), threat(model.RiskHigh), threat(model.RiskHigh)}, model.RiskCritical},
		{[]model.Threat{threat(model.RiskCritical)}, model.RiskCritical},
	}
	for i, tc := range cases {
		if got := Level(tc.threats); got != tc.want {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	bases := [][]model.Threat{
		nil,
		{threat(model.RiskLow)},
		{threat(model.RiskMedium)},
		{threat(model.RiskMedium), threat(model.RiskMedium)},
		{threat(model.RiskHigh), threat(model.RiskHigh)},
	}
	for _, base := range bases {
		before := Level(base)
		for _, extra := range []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical} {
			after := Level(append(append([]model.Threat(nil), base...), threat(extra)))
			if !after.AtLeast(before) {
				t.Fatalf("adding %s lowered %s to %s", extra, before, after)
			}
			if !after.AtLeast(extra) && extra != model.RiskCritical {
				t.Fatalf("adding %s produced %s", extra, after)
			}
		}
	}
}

func TestScoreCleanTransferIsLow(t *testing.T) {
	s := NewScorer(Config{})
	events := []model.DecodedEvent{{Kind: model.KindNativeTransfer, Amount: "1500000000000000000", Token: model.TokenMetadata{Standard: model.StandardNative}}}
	got := s.Score(events, nil, model.AdvancedAnalysis{Status: model.TxStatusSuccess, TotalUSD: 3000})
	if got.OverallLevel != model.RiskLow || len(got.Threats) != 0 || got.Score != 0 {
		t.Fatalf("expected clean low assessment, got %+v", got)
	}
	if len(got.Recommendations) != 1 {
		t.Fatalf("expected default recommendation, got %v", got.Recommendations)
	}
}

func TestScoreFailedTransactionIsHigh(t *testing.T) {
	got := NewScorer(Config{}).Score(nil, nil, model.AdvancedAnalysis{Status: model.TxStatusFailed})
	if got.OverallLevel != model.RiskHigh {
		t.Fatalf("expected High, got %s", got.OverallLevel)
	}
	if got.Threats[0].Confidence != 1.0 {
		t.Fatalf("failed tx must have full confidence")
	}
}

func TestScoreRules(t *testing.T) {
	s := NewScorer(Config{LargeUSDThreshold: 1000})
	interactions := []model.DeFiInteraction{
		{Contract: "0xa", Tag: model.ProtocolTag{ProtocolName: "Uniswap V2", Category: model.CategoryDEX, Verified: true, RiskLevel: model.RiskLow}},
		{Contract: "0xb", Tag: model.ProtocolTag{ProtocolName: "Unverified Bridge", Category: model.CategoryBridge, RiskLevel: model.RiskHigh}},
	}
	advanced := model.AdvancedAnalysis{
		Status:   model.TxStatusSuccess,
		TotalUSD: 5000,
		Gas:      model.GasAssessment{PriceRatio: 3, Congestion: model.CongestionExtreme, GasPriceGwei: 300},
		Opportunities: []model.Opportunity{
			{Kind: "arbitrage"}, {Kind: "arbitrage"}, {Kind: "arbitrage"},
		},
	}
	events := []model.DecodedEvent{{Kind: model.KindTokenTransfer, Token: model.UnknownToken("0xc")}}

	got := s.Score(events, interactions, advanced)
	counts := map[model.RiskLevel]int{}
	for _, th := range got.Threats {
		counts[th.Severity]++
	}
	if counts[model.RiskHigh] != 1 || counts[model.RiskMedium] != 3 || counts[model.RiskLow] != 1 {
		t.Fatalf("unexpected threat mix %v", counts)
	}
	if got.OverallLevel != model.RiskHigh {
		t.Fatalf("expected High, got %s", got.OverallLevel)
	}
	if got.Score != 30+15*3+5 {
		t.Fatalf("unexpected score %v", got.Score)
	}
}

func TestEveryEventKindHandled(t *testing.T) {
	var events []model.DecodedEvent
	for _, kind := range model.AllEventKinds {
		events = append(events, model.DecodedEvent{Kind: kind, Token: model.TokenMetadata{Standard: model.StandardERC20}})
	}
	unknown, unclassified := eventFindings(events)
	if unknown != 0 || unclassified != 1 {
		t.Fatalf("unexpected findings unknown=%d unclassified=%d", unknown, unclassified)
	}
}
