package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"prediction-service/internal/models"
)

// Notifier announces high-risk results.
type Notifier interface {
	Notify(ctx context.Context, result *models.PredictionResult) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, *models.PredictionResult) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a summary to a Telegram chat. Feature values are
// never included in the message.
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier authorizes the bot token and targets chatID.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))
	return newTelegramNotifier(botAPI, chatID, logger), nil
}

func newTelegramNotifier(api sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, result *models.PredictionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(result))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram notification: %w", err)
	}

	n.logger.Debug("High-risk notification sent", zap.Int64("chat_id", n.chatID))
	return nil
}

// FormatMessage renders the notification text.
func FormatMessage(result *models.PredictionResult) string {
	return fmt.Sprintf("⚠️ %s prediction\nConfidence: %.1f%%\nRisk score: %.1f%%\nSource: %s",
		result.Prediction, result.Confidence, result.RiskScore, result.Mode)
}
