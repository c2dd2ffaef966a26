package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client wraps the Telegram Bot API for sending messages
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter // Telegram rate limit: max 30 msg/sec globally
}

// NewClient creates a new Telegram client with the given bot token
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(30), 1),
	}, nil
}

// GetUpdates returns a channel for receiving updates from Telegram
func (c *Client) GetUpdates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.api.GetUpdatesChan(u)
}

// StopReceivingUpdates stops the update channel
func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *Client) send(ctx context.Context, chattable tgbotapi.Chattable) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	_, err := c.api.Send(chattable)
	return err
}

// SendMessage sends a plain text message to a chat
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if err := c.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMarkdown sends a message with MarkdownV2 formatting to a chat
func (c *Client) SendMarkdown(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if err := c.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send markdown message: %w", err)
	}
	return nil
}

// SendVideo sends the video behind reference with a MarkdownV2 caption.
// HTTP(S) references are fetched by Telegram; anything else is treated as a
// Telegram file id.
func (c *Client) SendVideo(ctx context.Context, chatID int64, reference string, caption string) error {
	var file tgbotapi.RequestFileData = tgbotapi.FileID(reference)
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		file = tgbotapi.FileURL(reference)
	}

	video := tgbotapi.NewVideo(chatID, file)
	video.Caption = caption
	video.ParseMode = tgbotapi.ModeMarkdownV2
	if err := c.send(ctx, video); err != nil {
		return fmt.Errorf("failed to send video: %w", err)
	}
	return nil
}
