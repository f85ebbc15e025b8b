package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded once at startup.
type Config struct {
	// WhatsApp Cloud API
	MetaToken       string
	PhoneNumberID   string
	VerifyToken     string

	// Telegram CRM; empty token disables the mirror entirely
	TelegramToken   string
	AdminGroupID    int64

	ListenAddr      string
	SynonymsFile    string

	// ALLOW_EMPTY_SECRETS skips secret validation for local dev runs
	AllowEmptySecrets bool
}

// Load reads .env (if present) and the environment, validating that
// every secret the bot cannot run without is set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		MetaToken:         os.Getenv("META_TOKEN"),
		PhoneNumberID:     os.Getenv("PHONE_NUMBER_ID"),
		VerifyToken:       os.Getenv("VERIFY_TOKEN"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		SynonymsFile:      os.Getenv("SYNONYMS_FILE"),
		AllowEmptySecrets: getEnvBool("ALLOW_EMPTY_SECRETS", false),
	}

	if raw := os.Getenv("ADMIN_GROUP_ID"); raw != "" {
		groupID, err := parseGroupID(raw)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_GROUP_ID invalid: %v", err)
		}
		config.AdminGroupID = groupID
	}

	if !config.AllowEmptySecrets {
		if config.MetaToken == "" {
			return nil, fmt.Errorf("META_TOKEN environment variable is empty")
		}
		if config.PhoneNumberID == "" {
			return nil, fmt.Errorf("PHONE_NUMBER_ID environment variable is empty")
		}
		if config.VerifyToken == "" {
			return nil, fmt.Errorf("VERIFY_TOKEN environment variable is empty")
		}
	}
	if config.TelegramToken != "" && config.AdminGroupID == 0 {
		return nil, fmt.Errorf("ADMIN_GROUP_ID required when TELEGRAM_BOT_TOKEN is set")
	}

	return config, nil
}

// parseGroupID accepts "-1001234567890" or "1001234567890" and an
// optional inline comment after '#'.
func parseGroupID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	groupID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if groupID > 0 {
		// Supergroup ids are negative; fix the common copy-paste slip.
		groupID = -groupID
	}
	return groupID, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}
