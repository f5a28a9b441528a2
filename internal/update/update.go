package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriTalk/internal/eventbus"
)

func HandleUpdateWithEventBus(s *State, msg tea.Msg, eb *eventbus.EventBus) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsgWithEventBus(s, msg, eb)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(s, msg)
		return nil
	case spinner.TickMsg:
		return HandleSpinnerMsg(s, msg)
	case CoreEventMsg:
		return HandleCoreEvent(s, msg)
	}

	// Cursor blink and other widget messages.
	var cmd tea.Cmd
	s.Chat, cmd = s.Chat.Update(msg)
	return cmd
}
