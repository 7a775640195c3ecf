package logistics

type Config struct {
	WindowDays   int
	MaxEvents    int
	MaxEquipment int
}

func LoadConfig() *Config {
	return &Config{
		WindowDays:   90,
		MaxEvents:    20,
		MaxEquipment: 100,
	}
}
