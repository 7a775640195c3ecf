package assistant

type Config struct {
	WindowDays int
	MaxEvents  int
}

func LoadConfig() *Config {
	return &Config{
		WindowDays: 30,
		MaxEvents:  10,
	}
}
