package components

import (
	"github.com/Rorical/RoriTalk/ui/styles"
)

// RenderInput frames the chat input. A staged file is shown above it.
func RenderInput(inputView, stagedFile string, width int) string {
	out := ""
	if stagedFile != "" {
		out = styles.HintStyle().Render("Attached: "+stagedFile+" (enter to send, esc to drop)") + "\n"
	}
	return out + styles.InputStyle(width).Render(inputView)
}
