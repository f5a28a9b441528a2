package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriTalk/internal/models"
	"github.com/Rorical/RoriTalk/ui/styles"
)

var (
	loginFields    = []models.Field{models.FieldUsername, models.FieldPassword}
	registerFields = []models.Field{models.FieldUsername, models.FieldPassword, models.FieldEmail, models.FieldCode}
	resetFields    = []models.Field{models.FieldEmail}
	profileFields  = []models.Field{models.FieldOldPassword, models.FieldNewPassword, models.FieldConfirmPassword}
)

var fieldLabels = map[models.Field]string{
	models.FieldUsername:        "Username",
	models.FieldPassword:        "Password",
	models.FieldEmail:           "Email",
	models.FieldCode:            "Verification code",
	models.FieldOldPassword:     "Current password",
	models.FieldNewPassword:     "New password",
	models.FieldConfirmPassword: "Confirm new password",
}

func FieldLabel(f models.Field) string {
	return fieldLabels[f]
}

// AuthFields lists the form fields shown in mode, in focus order.
func AuthFields(mode models.AuthMode) []models.Field {
	switch mode {
	case models.ModeRegister:
		return registerFields
	case models.ModeResetPassword:
		return resetFields
	default:
		return loginFields
	}
}

// State is the UI side of the program: the last snapshot pushed by core plus the
// widgets used to edit it. Only the bubbletea update loop touches it.
type State struct {
	App     models.AppModel
	Inputs  map[models.Field]*textinput.Model
	Chat    textinput.Model
	Spinner spinner.Model
	Focus   int
	Hint    string // local feedback such as a mistyped command

	seenSent            uint64
	seenPasswordChanged uint64
}

func NewState() *State {
	s := &State{
		Inputs: make(map[models.Field]*textinput.Model),
		Spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.SpinnerStyle()),
		),
	}
	for f := range fieldLabels {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 128
		switch f {
		case models.FieldPassword, models.FieldOldPassword, models.FieldNewPassword, models.FieldConfirmPassword:
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		case models.FieldCode:
			ti.CharLimit = 16
		}
		s.Inputs[f] = &ti
	}

	s.Chat = textinput.New()
	s.Chat.Prompt = "> "
	s.Chat.Placeholder = "Type a message, or /attach <file>"
	s.Chat.CharLimit = 4000

	s.applyFocus()
	return s
}

// Fields lists the editable fields of the current screen.
func (s *State) Fields() []models.Field {
	switch s.App.Screen {
	case models.ScreenProfile:
		return profileFields
	case models.ScreenAuth:
		return AuthFields(s.App.Auth.Mode)
	default:
		return nil
	}
}

func (s *State) FocusedField() (models.Field, bool) {
	fields := s.Fields()
	if len(fields) == 0 {
		return "", false
	}
	return fields[s.Focus%len(fields)], true
}

func (s *State) moveFocus(delta int) tea.Cmd {
	n := len(s.Fields())
	if n == 0 {
		return nil
	}
	s.Focus = ((s.Focus+delta)%n + n) % n
	return s.applyFocus()
}

// applyFocus gives the cursor to exactly one widget on the current screen.
func (s *State) applyFocus() tea.Cmd {
	for _, ti := range s.Inputs {
		ti.Blur()
	}
	s.Chat.Blur()

	if s.App.Screen == models.ScreenChat {
		return s.Chat.Focus()
	}
	if f, ok := s.FocusedField(); ok {
		return s.Inputs[f].Focus()
	}
	return nil
}

// Prefill puts value into a field before the user starts typing.
func (s *State) Prefill(f models.Field, value string) {
	if ti, ok := s.Inputs[f]; ok {
		ti.SetValue(value)
		ti.CursorEnd()
	}
}

func (s *State) Value(f models.Field) string {
	if ti, ok := s.Inputs[f]; ok {
		return ti.Value()
	}
	return ""
}

func (s *State) clearProfileInputs() {
	for _, f := range profileFields {
		s.Inputs[f].Reset()
	}
	s.Focus = 0
}

// clearAuthSecrets empties the password and code left behind by the last session.
func (s *State) clearAuthSecrets() {
	s.Inputs[models.FieldPassword].Reset()
	s.Inputs[models.FieldCode].Reset()
}
