package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/ui/styles"
)

// FieldView is one rendered form row.
type FieldView struct {
	Label   string
	Input   string
	Error   string
	Focused bool
}

func renderFields(fields []FieldView) string {
	var b strings.Builder
	for _, f := range fields {
		marker := "  "
		if f.Focused {
			marker = "> "
		}
		b.WriteString(styles.LabelStyle(f.Focused).Render(marker+f.Label) + "\n")
		b.WriteString("  " + f.Input + "\n")
		if f.Error != "" {
			b.WriteString(styles.FieldErrorStyle().Render(f.Error) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var modeTabs = []struct {
	mode  models.AuthMode
	title string
}{
	{models.ModeLogin, "Log in"},
	{models.ModeRegister, "Register"},
	{models.ModeResetPassword, "Reset password"},
}

// RenderAuthForm draws the mode tabs and the fields of the active mode.
func RenderAuthForm(mode models.AuthMode, fields []FieldView, submitting, requestingCode bool, width int) string {
	tabs := make([]string, 0, len(modeTabs))
	for _, t := range modeTabs {
		tabs = append(tabs, styles.TabStyle(t.mode == mode).Render(t.title))
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")
	b.WriteString(renderFields(fields))

	switch {
	case submitting:
		b.WriteString(styles.HintStyle().Render("Submitting..."))
	case requestingCode:
		b.WriteString(styles.HintStyle().Render("Sending verification code..."))
	case mode == models.ModeRegister:
		b.WriteString(styles.HintStyle().Render("Press ctrl+e to mail a verification code"))
	}

	return styles.PanelStyle(width).Render(strings.TrimRight(b.String(), "\n"))
}

// RenderProfile draws the profile card and the password change form.
func RenderProfile(profile *models.UserProfile, fields []FieldView, busy bool, width int) string {
	var b strings.Builder

	switch {
	case profile != nil:
		b.WriteString(styles.TitleStyle().Render(profile.Login) + "\n")
		b.WriteString("  Email: " + profile.Email + "\n")
		b.WriteString("  ID: " + profile.ID + "\n")
		if !profile.CreatedAt.IsZero() {
			b.WriteString("  Member since " + profile.CreatedAt.Format("2006-01-02") +
				" (" + humanize.Time(profile.CreatedAt) + ")\n")
		}
	case busy:
		b.WriteString(styles.HintStyle().Render("Loading profile...") + "\n")
	default:
		b.WriteString(styles.HintStyle().Render("Profile unavailable") + "\n")
	}

	b.WriteString("\n" + styles.TitleStyle().Render("Change password") + "\n\n")
	b.WriteString(renderFields(fields))

	return styles.PanelStyle(width).Render(strings.TrimRight(b.String(), "\n"))
}

// RenderHelp renders the key bindings of the current screen on one line.
func RenderHelp(bindings []key.Binding, width int) string {
	h := help.New()
	h.Width = width
	return h.ShortHelpView(bindings)
}
