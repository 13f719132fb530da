package model

// Category is a DeFi protocol family.
type Category string

const (
	CategoryDEX          Category = "DEX"
	CategoryLending      Category = "Lending"
	CategoryYieldFarming Category = "YieldFarming"
	CategoryBridge       Category = "Bridge"
	CategoryStaking      Category = "Staking"
	CategoryUnknown      Category = "Unknown"
)

// RiskLevel is shared by protocol tags, threats and assessments.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Rank orders risk levels so comparisons never depend on string values.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// ProtocolTag is the classification of one contract touched by a transaction.
type ProtocolTag struct {
	ProtocolName string    `json:"protocol_name"`
	Category     Category  `json:"category"`
	Verified     bool      `json:"verified"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Action       string    `json:"action,omitempty"`
	Confidence   float64   `json:"confidence"`
}

// DeFiInteraction is a tagged contract plus its category guidance.
type DeFiInteraction struct {
	Contract           string      `json:"contract"`
	Tag                ProtocolTag `json:"tag"`
	MatchedBy          string      `json:"matched_by"`
	Purpose            string      `json:"purpose"`
	Risks              []string    `json:"risks"`
	Opportunities      []string    `json:"opportunities"`
	Recommendations    []string    `json:"recommendations"`
	DataSourceRequired []string    `json:"data_source_required,omitempty"`
}
