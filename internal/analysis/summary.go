package analysis

import (
	"strings"

	"txScope/internal/model"
)

// tally collects what the summary is computed from.
type tally struct {
	events       []model.DecodedEvent
	interactions []model.DeFiInteraction
	risk         model.RiskLevel
	totalUSD     float64
	feeUSD       float64
	feeWei       string
	efficiency   float64
}

func (t tally) summary() *model.Summary {
	counts := make(map[model.EventKind]int)
	for _, event := range t.events {
		counts[event.Kind]++
	}
	protocols := protocolCount(t.interactions)
	return &model.Summary{
		Complexity:       Complexity(len(t.events), len(t.interactions), protocols),
		RiskLevel:        t.risk,
		TransferCount:    len(t.events),
		InteractionCount: len(t.interactions),
		ProtocolCount:    protocols,
		EventCounts:      counts,
		TotalUSD:         t.totalUSD,
		FeeUSD:           t.feeUSD,
		FeeWei:           t.feeWei,
		GasEfficiencyPct: t.efficiency,
	}
}

// Complexity weighs protocols above interactions above plain transfers.
func Complexity(transfers, interactions, protocols int) string {
	score := transfers + 2*interactions + 3*protocols
	switch {
	case score <= 3:
		return model.ComplexitySimple
	case score <= 8:
		return model.ComplexityModerate
	case score <= 15:
		return model.ComplexityComplex
	default:
		return model.ComplexityVeryComplex
	}
}

func protocolCount(interactions []model.DeFiInteraction) int {
	seen := make(map[string]struct{})
	for _, interaction := range interactions {
		name := strings.ToLower(interaction.Tag.ProtocolName)
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	return len(seen)
}
