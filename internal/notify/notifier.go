package notify

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"linegate/internal/config"
	"linegate/internal/models"
)

// Notifier pushes create outcomes to an operator chat over the plain
// Telegram Bot API. Disabled (nil) when no token is configured.
type Notifier struct {
	chatID string
	client *resty.Client
	logger *zap.Logger
}

// New creates a notifier, or nil when notification is not configured.
func New(cfg config.NotifyConfig, logger *zap.Logger) *Notifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil
	}
	return &Notifier{
		chatID: cfg.ChatID,
		client: resty.New().SetBaseURL("https://api.telegram.org/bot" + cfg.BotToken),
		logger: logger,
	}
}

// CreatedUser announces a successful creation. Fire and forget.
func (n *Notifier) CreatedUser(user models.CreatedUser) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("✅ Linha criada\nUsuário: %s\nEmail: %s\nServidor: %s\nConexões: %d\nExpira em: %d dias",
		user.Username, user.Email, user.Server, user.Connections, user.ExpiryDays)
	n.send(text)
}

// CreateFailed announces a panel-side failure.
func (n *Notifier) CreateFailed(code, errMsg string) {
	if n == nil {
		return
	}
	n.send(fmt.Sprintf("❌ Falha ao criar linha\nCódigo: %s\nErro: %s", code, errMsg))
}

func (n *Notifier) send(text string) {
	_, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id": n.chatID,
			"text":    text,
		}).
		Post("/sendMessage")
	if err != nil {
		n.logger.Warn("telegram notification failed", zap.Error(err))
	}
}
