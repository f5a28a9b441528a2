package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/internal/update"
	"github.com/Rorical/RoriTalk/ui/components"
	"github.com/Rorical/RoriTalk/ui/styles"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(m.state, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	eventBus := m.dispatcher.GetEventBus()
	cmd := update.HandleUpdateWithEventBus(m.state, msg, eventBus)

	return m, cmd
}

func (m *AppModel) View() string {
	s := m.state
	app := s.App
	width := app.Width
	if width == 0 {
		width = 80
	}
	spin := s.Spinner.View()

	var b strings.Builder
	b.WriteString(styles.TitleStyle().Render("RoriTalk · "+m.profileName) + "\n\n")

	switch app.Screen {
	case models.ScreenChat:
		b.WriteString(components.RenderMessages(app.Chat.Messages, spin))
		b.WriteString(components.RenderInput(s.Chat.View(), app.Chat.StagedFile, width))
		b.WriteString("\n")
		b.WriteString(components.RenderSettings(app.Settings))
	case models.ScreenProfile:
		b.WriteString(components.RenderProfile(app.Profile.Profile, m.fieldViews(nil), app.Profile.Busy, width))
	default:
		b.WriteString(components.RenderAuthForm(app.Auth.Mode, m.fieldViews(app.Auth.Errors),
			app.Auth.Submitting, app.Auth.RequestingCode, width))
	}

	b.WriteString("\n")
	b.WriteString(components.RenderStatus(app.Notification, s.Hint, app.Loading(), spin, width))
	b.WriteString("\n")
	b.WriteString(components.RenderHelp(update.Keys.HelpFor(app.Screen, app.Auth.Mode), width))

	return b.String()
}

func (m *AppModel) fieldViews(errs map[models.Field]string) []components.FieldView {
	s := m.state
	focused, _ := s.FocusedField()
	fields := s.Fields()
	views := make([]components.FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, components.FieldView{
			Label:   update.FieldLabel(f),
			Input:   s.Inputs[f].View(),
			Error:   errs[f],
			Focused: f == focused,
		})
	}
	return views
}
