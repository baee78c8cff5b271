package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string
	HTTPAddr    string

	// Daily agenda close job.
	CloseJobHour   int
	CloseJobMinute int
	CloseJobTZ     string
	CronSecret     string

	// Notification channels. Either may be empty; the channel is then
	// disabled.
	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
	TelegramToken   string

	// Interview durations in minutes per priority tier.
	TierHighMinutes   int
	TierMediumMinutes int
	TierLowMinutes    int
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win in deployment.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:           os.Getenv("DB_DSN"),
		Environment:     os.Getenv("ENV"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		CloseJobTZ:      os.Getenv("CLOSE_JOB_TZ"),
		CronSecret:      os.Getenv("CRON_SECRET"),
		BrevoAPIKey:     os.Getenv("BREVO_API_KEY"),
		EmailSender:     os.Getenv("EMAIL_SENDER"),
		EmailSenderName: os.Getenv("EMAIL_SENDER_NAME"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.CloseJobTZ == "" {
		cfg.CloseJobTZ = "America/La_Paz"
	}
	if cfg.EmailSenderName == "" {
		cfg.EmailSenderName = "Interview Agenda"
	}

	var err error
	if cfg.CloseJobHour, err = intEnv("CLOSE_JOB_HOUR", 18); err != nil {
		return nil, err
	}
	if cfg.CloseJobMinute, err = intEnv("CLOSE_JOB_MINUTE", 0); err != nil {
		return nil, err
	}
	if cfg.TierHighMinutes, err = intEnv("TIER_HIGH_MINUTES", 25); err != nil {
		return nil, err
	}
	if cfg.TierMediumMinutes, err = intEnv("TIER_MEDIUM_MINUTES", 20); err != nil {
		return nil, err
	}
	if cfg.TierLowMinutes, err = intEnv("TIER_LOW_MINUTES", 10); err != nil {
		return nil, err
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
