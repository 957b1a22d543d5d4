// Package bot is the Telegram transport: on-demand price commands,
// subscription management and the daily broadcast.
package bot

import (
	"context"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/toannhu96/gia-vang-365/internal/domain"
)

type Config struct {
	Token           string
	LongPollTimeout time.Duration
}

// PricesReader supplies the current snapshot for /gold and broadcasts.
type PricesReader interface {
	GetCurrent(ctx context.Context) (domain.GoldPrices, error)
}

// SubscriberStore manages the broadcast recipient list.
type SubscriberStore interface {
	Upsert(ctx context.Context, sub domain.Subscriber) error
	SoftDelete(ctx context.Context, chatID int64) error
	ListActive(ctx context.Context) ([]domain.Subscriber, error)
}

// sender is the delivery side of telebot the broadcast needs.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type Bot struct {
	bot    *telebot.Bot
	send   sender
	prices PricesReader
	subs   SubscriberStore
	logger *slog.Logger
}

func New(cfg Config, prices PricesReader, subs SubscriberStore, logger *slog.Logger) (*Bot, error) {
	if cfg.LongPollTimeout <= 0 {
		cfg.LongPollTimeout = 10 * time.Second
	}

	b, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.LongPollTimeout},
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		bot:    b,
		send:   b,
		prices: prices,
		subs:   subs,
		logger: logger,
	}

	if err := b.SetCommands([]telebot.Command{
		{Text: "start", Description: "Start the bot"},
		{Text: "gold", Description: "Get current gold prices"},
		{Text: "subscribe", Description: "Subscribe to daily updates"},
		{Text: "unsubscribe", Description: "Unsubscribe from daily updates"},
		{Text: "help", Description: "Show this help message"},
	}); err != nil {
		logger.Warn("failed to register bot command menu", slog.String("error", err.Error()))
	}

	b.Handle("/start", bot.handleStart)
	b.Handle("/help", bot.handleHelp)
	b.Handle("/gold", bot.handleGold)
	b.Handle("/subscribe", bot.handleSubscribe)
	b.Handle("/unsubscribe", bot.handleUnsubscribe)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) {
	go b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

// Broadcast sends the current prices to every active subscriber. A failed
// delivery is logged and skipped; the remaining subscribers still get their
// message.
func (b *Bot) Broadcast(ctx context.Context) error {
	subscribers, err := b.subs.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(subscribers) == 0 {
		b.logger.Debug("broadcast: no subscribers")
		return nil
	}

	gp, err := b.prices.GetCurrent(ctx)
	if err != nil {
		return err
	}
	msg := FormatGoldPrices(gp)

	sent := 0
	for _, sub := range subscribers {
		if _, err := b.send.Send(&telebot.Chat{ID: sub.ChatID}, msg, telebot.ModeHTML); err != nil {
			b.logger.Error("broadcast: send failed",
				slog.Int64("chat_id", sub.ChatID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sent++
	}
	b.logger.Info("broadcast completed",
		slog.Int("subscribers", len(subscribers)),
		slog.Int("sent", sent),
	)
	return nil
}
