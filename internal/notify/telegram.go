package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grouk-eth/PumpBot/internal/config"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	apiBase    string
	botToken   string
	chatID     int64
	httpClient *http.Client
	logger     *logrus.Logger
}

type tgMessage struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// NewTelegramNotifier creates a Telegram notifier. When the bot token or chat
// id is missing it falls back to a log-only notifier, mirroring the behaviour
// of running without a configured channel.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *logrus.Logger) Notifier {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		logger.Warn("Telegram credentials not configured, notifications go to the log only")
		return NewLogNotifier(logger)
	}

	return &TelegramNotifier{
		apiBase:  defaultTelegramAPI,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send posts a Markdown message to the configured chat
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)

	msg := tgMessage{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api returned status %s", res.Status)
	}

	n.logger.WithField("chat_id", n.chatID).Debug("Telegram message delivered")
	return nil
}
