package models

type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
	ModeResetPassword
)

func (m AuthMode) String() string {
	switch m {
	case ModeRegister:
		return "register"
	case ModeResetPassword:
		return "reset-password"
	default:
		return "login"
	}
}

// Field names a form input that can carry a validation error.
type Field string

const (
	FieldUsername        Field = "username"
	FieldPassword        Field = "password"
	FieldEmail           Field = "email"
	FieldCode            Field = "code"
	FieldOldPassword     Field = "oldPassword"
	FieldNewPassword     Field = "newPassword"
	FieldConfirmPassword Field = "confirmPassword"
)

type AuthForm struct {
	Username string
	Password string
	Email    string
	Code     string
}

// AuthState is everything the auth screen shows. Errors is never shared between states.
type AuthState struct {
	Mode           AuthMode
	Form           AuthForm
	Errors         map[Field]string
	Submitting     bool
	RequestingCode bool
}

// ChatState is the conversation screen's view of the engine.
type ChatState struct {
	Messages   []Message
	Input      string
	StagedFile string // name of the attached file waiting to be sent, "" if none
	Busy       bool
	Sent       uint64 // bumped on every accepted submission
}

type ProfileState struct {
	Profile         *UserProfile
	Busy            bool
	PasswordChanged uint64 // bumped on every successful password change
}
