package reporting

// PreferTraditional and PreferAI name the two sides of the
// disagreement policy.
const (
	PreferTraditional = "traditional"
	PreferAI          = "ai"
)

type Config struct {
	// Prefer picks which reading of a dimension wins when the AI score
	// and the deterministic score diverge past the threshold.
	Prefer string
}

func LoadConfig() *Config {
	return &Config{
		Prefer: PreferTraditional,
	}
}
