package models

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type Provenance string

const (
	ProvenanceTraditional         Provenance = "traditional"
	ProvenanceAI                  Provenance = "ai"
	ProvenanceTraditionalFallback Provenance = "traditional-fallback"
)

// RiskScore is the normalized verdict every analysis produces.
type RiskScore struct {
	Dimension       string                 `json:"dimension"`
	Score           float64                `json:"score"`
	Level           RiskLevel              `json:"level"`
	Summary         string                 `json:"summary"`
	Recommendations []string               `json:"recommendations,omitempty"`
	Confidence      float64                `json:"confidence"`
	Provenance      Provenance             `json:"provenance"`
	Details         map[string]interface{} `json:"details,omitempty"`
	GeneratedAt     time.Time              `json:"generatedAt"`
}

// LevelBands holds the inclusive lower bounds of the medium, high and
// critical bands. Scores below Medium map to low.
type LevelBands struct {
	Medium   float64 `json:"medium" mapstructure:"medium"`
	High     float64 `json:"high" mapstructure:"high"`
	Critical float64 `json:"critical" mapstructure:"critical"`
}

// DefaultLevelBands mirrors the standard 30/60/80 banding.
func DefaultLevelBands() LevelBands {
	return LevelBands{Medium: 30, High: 60, Critical: 80}
}

// Level maps a numeric score onto a band. Boundaries belong to the
// higher band.
func (b LevelBands) Level(score float64) RiskLevel {
	switch {
	case score >= b.Critical:
		return RiskCritical
	case score >= b.High:
		return RiskHigh
	case score >= b.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// MaxLevel returns the more severe of two levels.
func MaxLevel(a, b RiskLevel) RiskLevel {
	if levelRank(a) >= levelRank(b) {
		return a
	}
	return b
}

func levelRank(l RiskLevel) int {
	switch l {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}
