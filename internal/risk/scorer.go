// Package risk derives a rule-based risk assessment for an analysed transaction.
package risk

import (
	"fmt"
	"math"

	"txScope/internal/model"
)

// Config holds the tunable thresholds of the rules.
type Config struct {
	// LargeUSDThreshold flags transfers whose total USD value exceeds it.
	LargeUSDThreshold float64
	// GasSpikeMultiplier is the paid-to-network gas price ratio treated as a spike.
	GasSpikeMultiplier float64
	// MaxOpportunities is how many arbitrage-like observations are tolerated.
	MaxOpportunities int
}

func DefaultConfig() Config {
	return Config{LargeUSDThreshold: 100_000, GasSpikeMultiplier: 2, MaxOpportunities: 2}
}

var severityWeight = map[model.RiskLevel]float64{
	model.RiskLow:      5,
	model.RiskMedium:   15,
	model.RiskHigh:     30,
	model.RiskCritical: 50,
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.LargeUSDThreshold <= 0 {
		cfg.LargeUSDThreshold = def.LargeUSDThreshold
	}
	if cfg.GasSpikeMultiplier <= 0 {
		cfg.GasSpikeMultiplier = def.GasSpikeMultiplier
	}
	if cfg.MaxOpportunities <= 0 {
		cfg.MaxOpportunities = def.MaxOpportunities
	}
	return &Scorer{cfg: cfg}
}

// Score applies every rule and reduces the resulting threats.
func (s *Scorer) Score(events []model.DecodedEvent, interactions []model.DeFiInteraction, advanced model.AdvancedAnalysis) model.RiskAssessment {
	var threats []model.Threat

	if advanced.TotalUSD > s.cfg.LargeUSDThreshold {
		threats = append(threats, model.Threat{
			Category:    model.ThreatEconomic,
			Severity:    model.RiskMedium,
			Description: "Large value transfer",
			Evidence:    fmt.Sprintf("total value $%.2f exceeds $%.0f", advanced.TotalUSD, s.cfg.LargeUSDThreshold),
			Confidence:  valuationConfidence(advanced.Valuations),
		})
	}

	for _, interaction := range interactions {
		tag := interaction.Tag
		switch {
		case tag.RiskLevel.AtLeast(model.RiskHigh):
			threats = append(threats, model.Threat{
				Category:    model.ThreatSmartContract,
				Severity:    model.RiskHigh,
				Description: "Interaction with a high-risk protocol",
				Evidence:    fmt.Sprintf("%s (%s) at %s rated %s", tag.ProtocolName, tag.Category, interaction.Contract, tag.RiskLevel),
				Confidence:  0.8,
			})
		case !tag.Verified:
			threats = append(threats, model.Threat{
				Category:    model.ThreatSmartContract,
				Severity:    model.RiskHigh,
				Description: "Interaction with an unverified contract",
				Evidence:    fmt.Sprintf("%s matched %s by %s", interaction.Contract, tag.Category, interaction.MatchedBy),
				Confidence:  0.6,
			})
		}
	}

	gas := advanced.Gas
	if gas.PriceRatio >= s.cfg.GasSpikeMultiplier && (gas.Congestion == model.CongestionHigh || gas.Congestion == model.CongestionExtreme) {
		threats = append(threats, model.Threat{
			Category:    model.ThreatTransaction,
			Severity:    model.RiskMedium,
			Description: "Gas price far above the network average during congestion",
			Evidence:    fmt.Sprintf("paid %.2f gwei, %.1fx the network price, congestion %s", gas.GasPriceGwei, gas.PriceRatio, gas.Congestion),
			Confidence:  0.7,
		})
	}

	if advanced.Status == model.TxStatusFailed {
		threats = append(threats, model.Threat{
			Category:    model.ThreatTransaction,
			Severity:    model.RiskHigh,
			Description: "Transaction failed",
			Evidence:    "receipt status is 0",
			Confidence:  1.0,
		})
	}

	if len(advanced.Opportunities) > s.cfg.MaxOpportunities {
		threats = append(threats, model.Threat{
			Category:    model.ThreatEconomic,
			Severity:    model.RiskMedium,
			Description: "Possible MEV activity",
			Evidence:    fmt.Sprintf("%d arbitrage-like patterns detected", len(advanced.Opportunities)),
			Confidence:  0.5,
		})
	}

	unknownTokens, unclassified := eventFindings(events)
	if unknownTokens > 0 {
		threats = append(threats, model.Threat{
			Category:    model.ThreatSmartContract,
			Severity:    model.RiskLow,
			Description: "Transfers of tokens with unresolved metadata",
			Evidence:    fmt.Sprintf("%d transfers reference unknown tokens", unknownTokens),
			Confidence:  0.5,
		})
	}
	if unclassified > 0 {
		threats = append(threats, model.Threat{
			Category:    model.ThreatSmartContract,
			Severity:    model.RiskLow,
			Description: "Transfers with an ambiguous token standard",
			Evidence:    fmt.Sprintf("%d unclassified transfers", unclassified),
			Confidence:  0.4,
		})
	}

	return Assess(threats)
}

// Assess reduces threats into an overall level, score and recommendations.
func Assess(threats []model.Threat) model.RiskAssessment {
	if threats == nil {
		threats = []model.Threat{}
	}
	score := 0.0
	for _, threat := range threats {
		score += severityWeight[threat.Severity]
	}
	return model.RiskAssessment{
		OverallLevel:    Level(threats),
		Score:           math.Min(100, score),
		Threats:         threats,
		Recommendations: recommendations(threats),
	}
}

// Level is monotonic: adding a threat never lowers the result.
func Level(threats []model.Threat) model.RiskLevel {
	var critical, high, medium int
	for _, threat := range threats {
		switch threat.Severity {
		case model.RiskCritical:
			critical++
		case model.RiskHigh:
			high++
		case model.RiskMedium:
			medium++
		}
	}
	switch {
	case critical > 0 || high >= 3:
		return model.RiskCritical
	case high >= 1 || medium >= 3:
		return model.RiskHigh
	case medium >= 1:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func eventFindings(events []model.DecodedEvent) (unknownTokens, unclassified int) {
	for _, event := range events {
		switch event.Kind {
		case model.KindNativeTransfer:
		case model.KindTokenTransfer, model.KindNFTTransfer, model.KindMultiTokenTransfer:
			if event.Token.IsUnknown() {
				unknownTokens++
			}
		case model.KindUnclassified:
			unclassified++
			if event.Token.IsUnknown() {
				unknownTokens++
			}
		default:
			unclassified++
		}
	}
	return unknownTokens, unclassified
}

func valuationConfidence(valuations []model.TransferValuation) float64 {
	if len(valuations) == 0 {
		return 0.5
	}
	total := 0.0
	for _, v := range valuations {
		total += v.Confidence
	}
	return total / float64(len(valuations))
}

func recommendations(threats []model.Threat) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(rec string) {
		if _, ok := seen[rec]; ok {
			return
		}
		seen[rec] = struct{}{}
		out = append(out, rec)
	}
	for _, threat := range threats {
		switch threat.Category {
		case model.ThreatEconomic:
			add("Split large transfers and verify counterparties")
		case model.ThreatSmartContract:
			if threat.Severity.AtLeast(model.RiskHigh) {
				add("Verify contract source and audits before approving tokens")
				add("Revoke unused token approvals")
			} else {
				add("Confirm token contracts against a trusted token list")
			}
		case model.ThreatTransaction:
			add("Review transaction parameters and gas settings before resubmitting")
		}
	}
	if len(out) == 0 {
		out = append(out, "No significant risks detected")
	}
	return out
}
