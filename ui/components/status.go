package components

import (
	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/ui/styles"
)

// RenderStatus shows the current notification, or a local hint, on one line.
func RenderStatus(note models.Notification, hint string, loading bool, spinnerView string, width int) string {
	style := styles.StatusStyle(width)
	content := "Ready"

	switch {
	case hint != "":
		content = hint
		style = styles.ErrorStatusStyle(width)
	case !note.IsZero():
		content = note.Message
		if note.Severity == models.SeverityError {
			style = styles.ErrorStatusStyle(width)
		} else {
			style = styles.SuccessStatusStyle(width)
		}
	case loading:
		content = "Working"
	}

	if loading {
		content = spinnerView + " " + content
	}
	return style.Render(content)
}
