package panel

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"linegate/internal/config"
)

// New builds a panel client from configuration.
func New(cfg config.PanelConfig, logger *zap.Logger) (Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("panel base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")

	dialect, err := NewDialect(cfg.Dialect, cfg.AutoPassword, cfg.AssumeSuccessOn200)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &panelClient{
		base:           base,
		adminUser:      strings.TrimSpace(cfg.AdminUser),
		adminPass:      cfg.AdminPass,
		dialect:        dialect,
		timeout:        timeout,
		defaultPackage: cfg.DefaultPackage,
		bouquets:       cfg.Bouquets,
		resellerNote:   cfg.ResellerNote,
		logger:         logger,
	}, nil
}
