// Package telegram exposes guidance through a long-polling Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	service "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/pkg/logger"
)

// Telegram rejects longer messages.
const maxMessageLen = 4096

// Replies that are not guidance.
const (
	Usage = "📚 Study Buddy\n\n" +
		"Tell me how you feel about your studies and I'll suggest a plan.\n\n" +
		"/exam N - set the days until your exam for your next message (0 clears it)\n" +
		"/help - show this message"
	EmptyInputWarning = "⚠️ Please enter your current feelings or study challenges."
	ClassifierFailure = "❌ Emotion analysis is unavailable right now. Please try again shortly."
	InvalidExamDays   = "Usage: /exam N where N is a whole number between 0 and 365."
	UnknownCommand    = "Unknown command. Send /help for usage."
)

// Guider produces guidance for a request.
type Guider interface {
	Guide(ctx context.Context, req model.Request) (model.Result, error)
}

// Sender delivers a plain-text reply to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Handler turns chat messages into replies. It keeps the pending exam
// countdown per chat.
type Handler struct {
	guider Guider
	log    logger.Logger

	mu   sync.Mutex
	days map[int64]int
}

// NewHandler creates a message handler.
func NewHandler(g Guider, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{guider: g, log: log, days: make(map[int64]int)}
}

// Reply returns the answer to one message from chatID.
func (h *Handler) Reply(ctx context.Context, chatID int64, text string) string {
	if cmd, args, ok := parseCommand(text); ok {
		return h.command(chatID, cmd, args)
	}

	h.mu.Lock()
	days := h.days[chatID]
	delete(h.days, chatID)
	h.mu.Unlock()

	res, err := h.guider.Guide(ctx, model.Request{Mood: text, DaysUntilExam: days})
	if err != nil {
		h.restoreDays(chatID, days)
	}
	switch {
	case err == nil:
		return Plain(res.Markdown())
	case errors.Is(err, service.ErrEmptyInput):
		return EmptyInputWarning
	default:
		h.log.Error(ctx, "telegram guidance failed", logger.Any("chat_id", chatID), logger.Error(err))
		return ClassifierFailure
	}
}

// restoreDays puts back a countdown consumed by a failed request unless a
// newer /exam arrived meanwhile.
func (h *Handler) restoreDays(chatID int64, days int) {
	if days == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, set := h.days[chatID]; !set {
		h.days[chatID] = days
	}
}

// PendingDays returns the countdown that the chat's next message will use.
func (h *Handler) PendingDays(chatID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.days[chatID]
}

func (h *Handler) command(chatID int64, cmd, args string) string {
	switch cmd {
	case "start", "help":
		return Usage
	case "exam":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil || !(model.Request{DaysUntilExam: n}).DaysInRange() {
			return InvalidExamDays
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if n == 0 {
			delete(h.days, chatID)
			return "🗓️ Exam countdown cleared."
		}
		h.days[chatID] = n
		return fmt.Sprintf("🗓️ Got it: %d days until your exam. Now tell me how you feel.", n)
	default:
		return UnknownCommand
	}
}

// parseCommand splits "/cmd@bot args" into its parts.
func parseCommand(text string) (cmd, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), rest, head != ""
}

// Split breaks text into chunks Telegram accepts, on line boundaries where
// possible.
func Split(text string) []string {
	var chunks []string
	for len(text) > maxMessageLen {
		cut := strings.LastIndex(text[:maxMessageLen], "\n")
		if cut <= 0 {
			cut = maxMessageLen
			// Do not split a UTF-8 sequence.
			for cut > 0 && text[cut]&0xC0 == 0x80 {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// Bot long-polls Telegram and answers every message.
type Bot struct {
	api         *tgbotapi.BotAPI
	handler     *Handler
	sender      Sender
	pollTimeout int
	log         logger.Logger
}

// New connects to the Bot API with token.
func New(token string, pollTimeout int, g Guider) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	log := logger.Get().Named("telegram")
	return &Bot{
		api:         api,
		handler:     NewHandler(g, log),
		sender:      &APISender{api: api},
		pollTimeout: pollTimeout,
		log:         log,
	}, nil
}

// Run polls until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.log.Info(ctx, "telegram bot started", logger.String("username", b.api.Self.UserName))
	for {
		select {
		case <-ctx.Done():
			b.log.Info(ctx, "telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handle(ctx, update.Message.Chat.ID, update.Message.Text)
		}
	}
}

func (b *Bot) handle(ctx context.Context, chatID int64, text string) {
	for _, chunk := range Split(b.handler.Reply(ctx, chatID, text)) {
		if err := b.sender.Send(ctx, chatID, chunk); err != nil {
			b.log.Warn(ctx, "telegram reply failed", logger.Any("chat_id", chatID), logger.Error(err))
			return
		}
	}
}

// APISender sends plain-text messages through the Bot API.
type APISender struct {
	api *tgbotapi.BotAPI
}

// Send implements Sender.
func (s *APISender) Send(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}
