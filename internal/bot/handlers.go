package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/toannhu96/gia-vang-365/internal/domain"
)

const (
	replyFetchFailed     = "Sorry, there was an error fetching gold prices. Please try again later."
	replySubscribeFailed = "Sorry, there was an error processing your subscription."
)

func (b *Bot) handleStart(c telebot.Context) error {
	return c.Send("🏆 Welcome to Vietnamese Gold Price Bot!\n" +
		"Use /gold to get current gold prices\n" +
		"Use /subscribe to get daily updates at 7 AM\n" +
		"Use /help to see all available commands")
}

func (b *Bot) handleHelp(c telebot.Context) error {
	return c.Send("👉 Available commands:\n" +
		"/start - Start the bot\n" +
		"/gold - Get current gold prices\n" +
		"/subscribe - Get daily updates at 7 AM\n" +
		"/unsubscribe - Stop daily updates\n" +
		"/help - Show this help message")
}

func (b *Bot) handleGold(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gp, err := b.prices.GetCurrent(ctx)
	if err != nil {
		b.logger.Error("bot: /gold fetch failed",
			slog.Int64("chat_id", c.Chat().ID),
			slog.String("error", err.Error()),
		)
		return c.Send(replyFetchFailed)
	}
	return c.Send(FormatGoldPrices(gp), telebot.ModeHTML)
}

func (b *Bot) handleSubscribe(c telebot.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Sorry, couldn't get your chat ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := domain.Subscriber{
		ChatID:   chat.ID,
		Username: chat.Username,
		Name:     strings.TrimSpace(chat.FirstName + " " + chat.LastName),
	}
	if err := b.subs.Upsert(ctx, sub); err != nil {
		b.logger.Error("bot: subscribe failed",
			slog.Int64("chat_id", chat.ID),
			slog.String("error", err.Error()),
		)
		return c.Send(replySubscribeFailed)
	}

	return c.Send("✅ Subscribed! You'll get daily gold updates at 7 AM (GMT+7).\n" +
		"Use /unsubscribe to opt-out anytime.")
}

func (b *Bot) handleUnsubscribe(c telebot.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Sorry, couldn't get your chat ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.subs.SoftDelete(ctx, chat.ID); err != nil {
		b.logger.Error("bot: unsubscribe failed",
			slog.Int64("chat_id", chat.ID),
			slog.String("error", err.Error()),
		)
		return c.Send("Sorry, there was an error processing your unsubscription.")
	}

	return c.Send("✅ You've been unsubscribed from daily updates.\n" +
		"You can subscribe again anytime using /subscribe.")
}
