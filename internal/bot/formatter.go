package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/quickpad-go/internal/model"
)

// maxListCaption is the caption length shown per line in /list replies
const maxListCaption = 60

// EscapeMarkdown escapes special characters for Telegram MarkdownV2 format
func EscapeMarkdown(text string) string {
	// Characters that need to be escaped in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! and the backslash itself
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}
	return result
}

// FormatVideoMessage formats a saved video as a MarkdownV2 message: caption,
// capture time and reference.
func FormatVideoMessage(video model.Video) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("🎬 *%s*", EscapeMarkdown(video.Caption)))

	if video.CreatedAt > 0 {
		at := time.UnixMilli(video.CreatedAt).UTC().Format("2006-01-02 15:04")
		parts = append(parts, fmt.Sprintf("🕒 %s UTC", EscapeMarkdown(at)))
	}

	if video.URI != "" {
		parts = append(parts, fmt.Sprintf("🔗 `%s`", escapeCode(video.URI)))
	}

	return strings.Join(parts, "\n")
}

// FormatVideoList formats up to limit videos, newest first, one per line.
func FormatVideoList(videos []model.Video, limit int) string {
	if len(videos) == 0 {
		return "📭 No videos yet\\. Send a video with a caption to add one\\."
	}

	shown := videos
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	lines := []string{fmt.Sprintf("📋 *Latest videos \\(%d of %d\\)*", len(shown), len(videos))}
	for _, v := range shown {
		lines = append(lines, fmt.Sprintf("%d\\. %s", v.ID, EscapeMarkdown(truncate(v.Caption, maxListCaption))))
	}
	lines = append(lines, "", "Use /play \\<id\\> to watch one\\.")
	return strings.Join(lines, "\n")
}

// escapeCode escapes text placed inside a MarkdownV2 code span
func escapeCode(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	return strings.ReplaceAll(text, "`", "\\`")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
