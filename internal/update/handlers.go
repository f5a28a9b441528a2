package update

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriTalk/internal/eventbus"
	"github.com/Rorical/RoriTalk/internal/models"
)

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// send forwards event to core, reporting a full or broken bus in the hint line.
func send(s *State, eb *eventbus.EventBus, event eventbus.UIEvent) {
	if err := eb.SendToCore(event); err != nil {
		s.Hint = "Error sending event: " + err.Error()
	}
}

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(s *State, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	if key.Matches(keyMsg, Keys.Quit) {
		return tea.Quit
	}
	s.Hint = ""

	switch s.App.Screen {
	case models.ScreenChat:
		return handleChatKey(s, keyMsg, eb)
	case models.ScreenProfile:
		return handleProfileKey(s, keyMsg, eb)
	default:
		return handleAuthKey(s, keyMsg, eb)
	}
}

func handleAuthKey(s *State, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	mode := s.App.Auth.Mode
	switch {
	case key.Matches(keyMsg, Keys.Submit):
		if !s.App.Auth.Submitting {
			send(s, eb, eventbus.SubmitAuthEvent{})
		}
		return nil
	case key.Matches(keyMsg, Keys.NextField):
		return s.moveFocus(1)
	case key.Matches(keyMsg, Keys.PrevField):
		return s.moveFocus(-1)
	case key.Matches(keyMsg, Keys.ToggleRegister):
		next := models.ModeRegister
		if mode == models.ModeRegister {
			next = models.ModeLogin
		}
		send(s, eb, eventbus.SwitchModeEvent{Mode: next})
		return nil
	case key.Matches(keyMsg, Keys.ResetPassword):
		next := models.ModeResetPassword
		if mode == models.ModeResetPassword {
			next = models.ModeLogin
		}
		send(s, eb, eventbus.SwitchModeEvent{Mode: next})
		return nil
	case key.Matches(keyMsg, Keys.SendCode):
		if mode == models.ModeRegister && !s.App.Auth.RequestingCode {
			send(s, eb, eventbus.RequestCodeEvent{})
		}
		return nil
	}

	f, ok := s.FocusedField()
	if !ok {
		return nil
	}
	return editField(s, f, keyMsg, func(value string) {
		send(s, eb, eventbus.SetFieldEvent{Field: f, Value: value})
	})
}

func handleChatKey(s *State, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch {
	case key.Matches(keyMsg, Keys.Submit):
		line := s.Chat.Value()
		if IsCommand(line) {
			runCommand(s, line, eb)
			return nil
		}
		if !s.App.Chat.Busy {
			send(s, eb, eventbus.SubmitChatEvent{})
		}
		return nil
	case key.Matches(keyMsg, Keys.Detach):
		if s.App.Chat.StagedFile != "" {
			send(s, eb, eventbus.DetachFileEvent{})
		}
		return nil
	}

	before := s.Chat.Value()
	var cmd tea.Cmd
	s.Chat, cmd = s.Chat.Update(keyMsg)
	if after := s.Chat.Value(); after != before {
		send(s, eb, eventbus.SetInputEvent{Text: after})
	}
	return cmd
}

func runCommand(s *State, line string, eb *eventbus.EventBus) {
	command, err := ParseCommand(line)
	if err == nil {
		var event eventbus.UIEvent
		if event, err = command.Event(); err == nil {
			send(s, eb, event)
			s.Chat.Reset()
			send(s, eb, eventbus.SetInputEvent{Text: ""})
			return
		}
	}
	s.Hint = err.Error()
}

func handleProfileKey(s *State, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch {
	case key.Matches(keyMsg, Keys.Submit):
		if !s.App.Profile.Busy {
			send(s, eb, eventbus.ChangePasswordEvent{
				OldPassword: s.Value(models.FieldOldPassword),
				NewPassword: s.Value(models.FieldNewPassword),
				Confirm:     s.Value(models.FieldConfirmPassword),
			})
		}
		return nil
	case key.Matches(keyMsg, Keys.NextField):
		return s.moveFocus(1)
	case key.Matches(keyMsg, Keys.PrevField):
		return s.moveFocus(-1)
	case key.Matches(keyMsg, Keys.Logout):
		if !s.App.Profile.Busy {
			send(s, eb, eventbus.LogoutEvent{})
		}
		return nil
	case key.Matches(keyMsg, Keys.Back):
		send(s, eb, eventbus.NavigateEvent{Screen: models.ScreenChat})
		return nil
	}

	f, ok := s.FocusedField()
	if !ok {
		return nil
	}
	return editField(s, f, keyMsg, nil)
}

// editField feeds keyMsg to the field's widget and reports a changed value.
func editField(s *State, f models.Field, keyMsg tea.KeyMsg, changed func(string)) tea.Cmd {
	ti := s.Inputs[f]
	before := ti.Value()
	var cmd tea.Cmd
	*ti, cmd = ti.Update(keyMsg)
	if after := ti.Value(); after != before && changed != nil {
		changed(after)
	}
	return cmd
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(s *State, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		prev := s.App
		next := event.State
		next.Width, next.Height = prev.Width, prev.Height
		s.App = next

		if next.Chat.Sent != s.seenSent {
			s.seenSent = next.Chat.Sent
			s.Chat.Reset()
		}
		if next.Profile.PasswordChanged != s.seenPasswordChanged {
			s.seenPasswordChanged = next.Profile.PasswordChanged
			s.clearProfileInputs()
		}
		if next.Screen == models.ScreenAuth && prev.Screen != models.ScreenAuth {
			s.clearAuthSecrets()
		}

		var cmds []tea.Cmd
		if prev.Screen != next.Screen || prev.Auth.Mode != next.Auth.Mode {
			s.Focus = 0
			cmds = append(cmds, s.applyFocus())
		}
		if next.Loading() && !prev.Loading() {
			cmds = append(cmds, s.Spinner.Tick)
		}
		return tea.Batch(cmds...)
	}

	return nil
}

func HandleWindowSizeMsg(s *State, sizeMsg tea.WindowSizeMsg) {
	s.App.Width = sizeMsg.Width
	s.App.Height = sizeMsg.Height

	width := sizeMsg.Width - 8
	if width < 20 {
		width = 20
	}
	s.Chat.Width = width
	for _, ti := range s.Inputs {
		ti.Width = width / 2
	}
}

// HandleSpinnerMsg animates the spinner only while something is loading.
func HandleSpinnerMsg(s *State, msg spinner.TickMsg) tea.Cmd {
	if !s.App.Loading() {
		return nil
	}
	var cmd tea.Cmd
	s.Spinner, cmd = s.Spinner.Update(msg)
	return cmd
}
