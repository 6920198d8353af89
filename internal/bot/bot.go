package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"igla/internal/config"
	"igla/internal/domain"
	"igla/internal/events"
	"igla/internal/metrics"
	"igla/internal/schedule"
	"igla/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tg       *service.TelegramService
	config   *config.Config
	drafts   *service.DraftService
	bookings *service.BookingService
	pricing  *service.PricingService
	repo     domain.Repository
	sched    *schedule.Schedule
	eventBus *events.EventBus
	logger   *zerolog.Logger
}

func NewBot(
	tg *service.TelegramService,
	cfg *config.Config,
	drafts *service.DraftService,
	bookings *service.BookingService,
	pricingSvc *service.PricingService,
	repo domain.Repository,
	sched *schedule.Schedule,
	eventBus *events.EventBus,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tg:       tg,
		config:   cfg,
		drafts:   drafts,
		bookings: bookings,
		pricing:  pricingSvc,
		repo:     repo,
		sched:    sched,
		eventBus: eventBus,
		logger:   logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	b.subscribeEvents()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// subscribeEvents уведомляет администраторов о каждой новой записи.
func (b *Bot) subscribeEvents() {
	if b.eventBus == nil {
		return
	}
	b.eventBus.Subscribe(events.EventReservationCreated, func(event *events.Event) error {
		var p events.ReservationEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		text := fmt.Sprintf("🆕 Новая запись №%d: %s в %s (клиент %d).", p.OrderID, p.Date, p.Slot, p.TgID)
		for _, adminID := range b.config.Admins {
			b.sendMessage(adminID, text)
		}
		return nil
	})
}

// Stop прекращает получение обновлений.
func (b *Bot) Stop() {
	if b == nil || b.tg == nil {
		return
	}
	b.tg.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	// Контекст на обработку одного обновления
	updateProcessCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx := l.WithContext(updateProcessCtx)

	b.withRecovery(func() {
		var userID int64
		switch {
		case update.Message != nil:
			userID = update.Message.From.ID
		case update.CallbackQuery != nil:
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		if !b.isAdmin(userID) {
			allowed, err := b.drafts.CheckRateLimit(updateCtx, userID,
				b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendMessage(update.Message.Chat.ID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			metrics.IncBotUpdate("callback")
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		metrics.IncBotUpdate("message")
		b.handleMessage(updateCtx, update)
	})
}

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.config.IsAdmin(userID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tg.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
