package components

import (
	"fmt"

	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/ui/styles"
)

func RenderSettings(s models.TtsSettings) string {
	return styles.HintStyle().Render(fmt.Sprintf("voice %s | emotion %s | speed %.1fx | %s",
		s.Voice, s.Emotion, s.Speed, s.Format))
}
