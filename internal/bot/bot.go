package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/assistant"
)

const handleTimeout = 30 * time.Second

type Bot struct {
	api       *tgbotapi.BotAPI
	assistant *assistant.Assistant
	logger    *zap.Logger
}

func New(token string, assistant *assistant.Assistant, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		assistant: assistant,
		logger:    logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if message.Text == "" {
		return
	}

	// One chat is one session; every participant shares its context.
	sessionID := strconv.FormatInt(message.Chat.ID, 10)

	resp, err := b.assistant.Handle(ctx, sessionID, message.Text)
	if err != nil {
		b.logger.Error("Failed to handle query",
			zap.Error(err),
			zap.String("session_id", sessionID))
		b.send(message.Chat.ID, message.MessageID,
			"Sorry, something went wrong on my end. Please try again.")
		return
	}

	b.send(message.Chat.ID, message.MessageID, resp.Answer)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	default:
		b.send(message.Chat.ID, message.MessageID,
			"Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to the FPL Assistant! ⚽
I answer Fantasy Premier League questions using live official data.

Ask me things like:
• "How much does Salah cost?"
• "What are Arsenal's next 3 fixtures?"
• "Haaland or Salah for captain?"

I remember the last few turns of our conversation, so follow-ups like "how much does he cost?" just work.`
	b.send(message.Chat.ID, message.MessageID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `I can help with:
• Player stats - price, points, form, ownership
• Fixtures - who a club plays next and when
• Comparisons and strategy - "X or Y?", captain picks, transfers

Just ask in plain English.`
	b.send(message.Chat.ID, message.MessageID, help)
}

func (b *Bot) send(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
