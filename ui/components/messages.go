package components

import (
	"strings"

	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/ui/styles"
)

// RenderMessages draws the conversation log. spinnerView animates the placeholder.
func RenderMessages(messages []models.Message, spinnerView string) string {
	if len(messages) == 0 {
		return styles.HintStyle().Render("No messages yet. Say something to hear it back.") + "\n\n"
	}

	var b strings.Builder

	userStyle := styles.UserStyle()
	fileStyle := styles.FileStyle()
	botStyle := styles.BotStyle()
	placeholderStyle := styles.PlaceholderStyle()

	for _, msg := range messages {
		switch {
		case msg.IsLoading():
			b.WriteString(placeholderStyle.Render(spinnerView+" Synthesizing reply") + "\n\n")
		case msg.Sender == models.Bot:
			b.WriteString(botStyle.Render("Bot: "+renderAudio(msg.Text)) + "\n\n")
		case msg.IsFile:
			b.WriteString(fileStyle.Render("You: File: "+msg.Text) + "\n\n")
		default:
			b.WriteString(userStyle.Render("You: "+msg.Text) + "\n\n")
		}
	}

	return b.String()
}

// renderAudio labels reply URLs, which point at the synthesized audio.
func renderAudio(text string) string {
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return "audio " + text
	}
	return text
}
