package config

import "os"

type Config struct {
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    string
	NATSURL         string
	ItsPaidBaseURL  string
	ItsPaidAPIKey   string
	PrometeoBaseURL string
	PrometeoAPIKey  string
	Port            string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8085"
	}

	return &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		NATSURL:         os.Getenv("NATS_URL"),
		ItsPaidBaseURL:  os.Getenv("ITSPAID_BASE_URL"),
		ItsPaidAPIKey:   os.Getenv("ITSPAID_API_KEY"),
		PrometeoBaseURL: os.Getenv("PROMETEO_BASE_URL"),
		PrometeoAPIKey:  os.Getenv("PROMETEO_API_KEY"),
		Port:            port,
	}
}
