package update

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/Rorical/RoriTalk/internal/models"
)

type KeyMap struct {
	Quit           key.Binding
	Submit         key.Binding
	NextField      key.Binding
	PrevField      key.Binding
	ToggleRegister key.Binding
	ResetPassword  key.Binding
	SendCode       key.Binding
	Detach         key.Binding
	Logout         key.Binding
	Back           key.Binding
}

var Keys = KeyMap{
	Quit:           key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Submit:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	NextField:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	ToggleRegister: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/register")),
	ResetPassword:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset password")),
	SendCode:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "send code")),
	Detach:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "drop attachment")),
	Logout:         key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log out")),
	Back:           key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to chat")),
}

// HelpFor lists the bindings that do something on the given screen.
func (k KeyMap) HelpFor(screen models.Screen, mode models.AuthMode) []key.Binding {
	switch screen {
	case models.ScreenChat:
		return []key.Binding{k.Submit, k.Detach, k.Quit}
	case models.ScreenProfile:
		return []key.Binding{k.Submit, k.NextField, k.Logout, k.Back, k.Quit}
	default:
		bindings := []key.Binding{k.Submit, k.NextField, k.ToggleRegister, k.ResetPassword}
		if mode == models.ModeRegister {
			bindings = append(bindings, k.SendCode)
		}
		return append(bindings, k.Quit)
	}
}
