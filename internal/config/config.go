package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Panel  PanelConfig
	Redis  RedisConfig
	Notify NotifyConfig
	API    APIConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

// PanelConfig holds everything needed to drive the IPTV panel.
type PanelConfig struct {
	BaseURL            string
	AdminUser          string
	AdminPass          string
	Dialect            string // "classic", "extended"
	AutoPassword       bool   // panel generates the line password server-side
	AssumeSuccessOn200 bool   // classic panels answer error pages with 200
	DefaultPackage     string
	Bouquets           []string
	ResellerNote       string
	Timeout            time.Duration
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type NotifyConfig struct {
	BotToken string
	ChatID   string
}

type APIConfig struct {
	Key string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("PANEL_DIALECT", "classic")
	viper.SetDefault("PANEL_TIMEOUT", "30s")
	viper.SetDefault("PANEL_AUTO_PASSWORD", false)
	viper.SetDefault("PANEL_ASSUME_200", false)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)

	timeout, err := time.ParseDuration(viper.GetString("PANEL_TIMEOUT"))
	if err != nil {
		timeout = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Panel: PanelConfig{
			BaseURL:            strings.TrimRight(strings.TrimSpace(viper.GetString("IPTV_BASE_URL")), "/"),
			AdminUser:          viper.GetString("IPTV_USERNAME"),
			AdminPass:          viper.GetString("IPTV_PASSWORD"),
			Dialect:            strings.ToLower(strings.TrimSpace(viper.GetString("PANEL_DIALECT"))),
			AutoPassword:       viper.GetBool("PANEL_AUTO_PASSWORD"),
			AssumeSuccessOn200: viper.GetBool("PANEL_ASSUME_200"),
			DefaultPackage:     viper.GetString("PANEL_PACKAGE"),
			Bouquets:           splitCSV(viper.GetString("PANEL_BOUQUETS")),
			ResellerNote:       viper.GetString("PANEL_RESELLER_NOTE"),
			Timeout:            timeout,
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Notify: NotifyConfig{
			BotToken: viper.GetString("NOTIFY_BOT_TOKEN"),
			ChatID:   viper.GetString("NOTIFY_CHAT_ID"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
	}

	if cfg.Panel.BaseURL == "" {
		log.Println("WARNING: IPTV_BASE_URL is not set")
	}
	if cfg.Panel.AdminUser == "" {
		log.Println("WARNING: IPTV_USERNAME is not set")
	}
	if cfg.Panel.AdminPass == "" {
		log.Println("WARNING: IPTV_PASSWORD is not set")
	}

	return cfg, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
