package model

// ThreatCategory groups threat records.
type ThreatCategory string

const (
	ThreatEconomic      ThreatCategory = "Economic"
	ThreatSmartContract ThreatCategory = "SmartContract"
	ThreatTransaction   ThreatCategory = "Transaction"
)

// Threat is one rule hit produced by the risk scorer.
type Threat struct {
	Category    ThreatCategory `json:"category"`
	Severity    RiskLevel      `json:"severity"`
	Description string         `json:"description"`
	Evidence    string         `json:"evidence"`
	Confidence  float64        `json:"confidence"`
}

// RiskAssessment is recomputed on every request.
type RiskAssessment struct {
	OverallLevel    RiskLevel `json:"overall_level"`
	Score           float64   `json:"score"`
	Threats         []Threat  `json:"threats"`
	Recommendations []string  `json:"recommendations"`
}
