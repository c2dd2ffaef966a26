package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/quickpad-go/internal/binder"
	"github.com/user/quickpad-go/internal/model"
)

// ErrNoPlayer is returned when a saved reference cannot be played back
var ErrNoPlayer = errors.New("no app found to play this video")

// replyTimeout bounds replies sent after a background save completes
const replyTimeout = 30 * time.Second

// Messenger is the part of the Telegram client the handler needs
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	SendVideo(ctx context.Context, chatID int64, reference string, caption string) error
}

// VideoBinder is the part of the binder the handler needs
type VideoBinder interface {
	Snapshot(ctx context.Context) ([]model.Video, error)
	AddVideo(uri, caption string, onDone func(error))
}

// Handler handles Telegram bot commands
type Handler struct {
	binder    VideoBinder
	telegram  Messenger
	listLimit int
}

// NewHandler creates a new command handler
func NewHandler(b VideoBinder, telegram Messenger, listLimit int) *Handler {
	return &Handler{
		binder:    b,
		telegram:  telegram,
		listLimit: listLimit,
	}
}

// HandleUpdate processes an incoming Telegram update
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	// A video sent to the bot is a pick: its file id is the reference
	if reference, ok := videoReference(msg); ok {
		h.saveVideo(ctx, msg.Chat.ID, reference, msg.Caption)
	}
}

// videoReference extracts the file id of a video or video document
func videoReference(msg *tgbotapi.Message) (string, bool) {
	if msg.Video != nil {
		return msg.Video.FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// handleCommand routes commands to their respective handlers
func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	log.Info().
		Int64("chatID", chatID).
		Str("command", command).
		Str("args", args).
		Msg("Received command")

	switch command {
	case "start", "help":
		h.handleStart(ctx, chatID)
	case "add":
		reference, caption, _ := strings.Cut(args, " ")
		h.saveVideo(ctx, chatID, reference, caption)
	case "list":
		h.handleList(ctx, chatID, args)
	case "play":
		h.handlePlay(ctx, chatID, args)
	default:
		h.sendError(ctx, chatID, "Unknown command. Use /help to see available commands.")
	}
}

// handleStart handles /start and /help commands
func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	helpText := `🤖 *QuickPad Help*

*Adding videos:*
Send a video with a caption to save it\.
/add reference caption \- Save a video by reference

*Browsing:*
/list \[n\] \- Show the newest videos
/play id \- Play a saved video`

	if err := h.telegram.SendMarkdown(ctx, chatID, helpText); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send help message")
	}
}

// saveVideo validates a pick and saves it in the background. The reply is sent
// once the save completes.
func (h *Handler) saveVideo(ctx context.Context, chatID int64, reference, caption string) {
	if err := binder.ValidateInput(reference, caption); err != nil {
		h.sendError(ctx, chatID, "Pick a video and add a caption")
		return
	}

	// The save outlives the update, so the reply must too.
	replyCtx := context.WithoutCancel(ctx)
	h.binder.AddVideo(reference, caption, func(err error) {
		ctx, cancel := context.WithTimeout(replyCtx, replyTimeout)
		defer cancel()

		if err != nil {
			log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to save video from chat")
			h.sendError(ctx, chatID, "Could not save the video. Please try again.")
			return
		}
		if err := h.telegram.SendMessage(ctx, chatID, "✅ Saved: "+strings.TrimSpace(caption)); err != nil {
			log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send save confirmation")
		}
	})
}

// ParseListLimit parses the /list argument. An empty argument means limit;
// larger values are capped to limit.
func ParseListLimit(args string, limit int) (int, error) {
	if args == "" {
		return limit, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q", args)
	}
	if n > limit {
		return limit, nil
	}
	return n, nil
}

// handleList handles /list [n]
func (h *Handler) handleList(ctx context.Context, chatID int64, args string) {
	n, err := ParseListLimit(args, h.listLimit)
	if err != nil {
		h.sendError(ctx, chatID, "Please provide a positive number. Example: /list 5")
		return
	}

	videos, err := h.binder.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to read video list")
		h.sendError(ctx, chatID, "Failed to get videos. Please try again.")
		return
	}

	if err := h.telegram.SendMarkdown(ctx, chatID, FormatVideoList(videos, n)); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send video list")
	}
}

// handlePlay handles /play <id>, sending the saved reference back as a video
func (h *Handler) handlePlay(ctx context.Context, chatID int64, args string) {
	id, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		h.sendError(ctx, chatID, "Please provide a video id. Example: /play 3")
		return
	}

	videos, err := h.binder.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to read video list")
		h.sendError(ctx, chatID, "Failed to get videos. Please try again.")
		return
	}

	video, ok := findVideo(videos, id)
	if !ok {
		h.sendError(ctx, chatID, fmt.Sprintf("No video with id %d.", id))
		return
	}

	if err := h.play(ctx, chatID, video); err != nil {
		log.Warn().Err(err).Uint64("videoID", id).Msg("Playback failed")
		h.sendError(ctx, chatID, "No app found to play this video")
	}
}

func (h *Handler) play(ctx context.Context, chatID int64, video model.Video) error {
	if err := h.telegram.SendVideo(ctx, chatID, video.URI, FormatVideoMessage(video)); err != nil {
		return fmt.Errorf("%w: %w", ErrNoPlayer, err)
	}
	return nil
}

func findVideo(videos []model.Video, id uint64) (model.Video, bool) {
	for _, v := range videos {
		if v.ID == id {
			return v, true
		}
	}
	return model.Video{}, false
}

// sendError sends an error message to the user
func (h *Handler) sendError(ctx context.Context, chatID int64, message string) {
	if err := h.telegram.SendMessage(ctx, chatID, "❌ "+message); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send error message")
	}
}
