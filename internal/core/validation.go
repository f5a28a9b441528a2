package core

import (
	"net/mail"
	"strings"

	"github.com/Rorical/RoriTalk/internal/models"
)

const MinPasswordLength = 6

const (
	msgRequired      = "This field is required"
	msgPasswordShort = "At least 6 characters"
	msgEmailFormat   = "Invalid email format"
	msgPasswordMatch = "New passwords do not match"
)

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func checkPassword(errs map[models.Field]string, field models.Field, password string) {
	switch {
	case password == "":
		errs[field] = msgRequired
	case len([]rune(password)) < MinPasswordLength:
		errs[field] = msgPasswordShort
	}
}

func checkEmail(errs map[models.Field]string, email string) {
	switch {
	case email == "":
		errs[models.FieldEmail] = msgRequired
	case !validEmail(email):
		errs[models.FieldEmail] = msgEmailFormat
	}
}

// ValidateAuth applies the schema of the given mode. It returns nil when the form may be sent.
func ValidateAuth(mode models.AuthMode, form models.AuthForm) *ValidationError {
	errs := make(map[models.Field]string)

	switch mode {
	case models.ModeResetPassword:
		checkEmail(errs, form.Email)
	default:
		if strings.TrimSpace(form.Username) == "" {
			errs[models.FieldUsername] = msgRequired
		}
		checkPassword(errs, models.FieldPassword, form.Password)
		if mode == models.ModeRegister {
			checkEmail(errs, form.Email)
			if strings.TrimSpace(form.Code) == "" {
				errs[models.FieldCode] = msgRequired
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// ValidatePasswordChange checks the profile screen's password form.
func ValidatePasswordChange(oldPassword, newPassword, confirm string) *ValidationError {
	errs := make(map[models.Field]string)
	if oldPassword == "" {
		errs[models.FieldOldPassword] = msgRequired
	}
	checkPassword(errs, models.FieldNewPassword, newPassword)
	if confirm != newPassword {
		errs[models.FieldConfirmPassword] = msgPasswordMatch
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}
