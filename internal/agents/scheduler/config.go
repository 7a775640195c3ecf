package scheduler

type Config struct {
	WindowDays int
	MaxRecords int
}

func LoadConfig() *Config {
	return &Config{
		WindowDays: 90,
		MaxRecords: 100,
	}
}
