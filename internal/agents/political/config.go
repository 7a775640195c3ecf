package political

type Config struct {
	WindowDays int
	MaxEvents  int
}

func LoadConfig() *Config {
	return &Config{
		WindowDays: 90,
		MaxEvents:  20,
	}
}
