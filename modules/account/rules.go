package account

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/example/task-tracker/pkg/validator"
)

// Registration form field names.
const (
	FieldUsername             = "username"
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// Validation codes reported by Register.
const (
	CodeUsernameTooLong   validator.Code = "username_too_long"
	CodeInvalidUsername   validator.Code = "invalid_username"
	CodeDuplicateUsername validator.Code = "duplicate_username"
	CodeInvalidEmail      validator.Code = "invalid_email"
	CodeDuplicateEmail    validator.Code = "duplicate_email"
	CodePasswordTooLong   validator.Code = "password_too_long"
	CodePasswordMismatch  validator.Code = "password_mismatch"
)

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 150

const maxEmailLength = 254

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// registration is the candidate the rules see. The store lookups are done
// up front so every rule stays a pure function of the candidate.
type registration struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	usernameTaken        bool
	emailTaken           bool
}

func newRegistration(req *RegisterRequest) registration {
	return registration{
		Username:             strings.TrimSpace(req.Username),
		Email:                strings.TrimSpace(req.Email),
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	}
}

var registrationRules = []validator.Rule[registration]{
	{
		Name:  "username-required",
		Field: FieldUsername,
		Check: func(r registration) *validator.FieldError {
			if r.Username == "" {
				return validator.Fail(validator.Required, "Username is required.")
			}
			return nil
		},
	},
	{
		Name:  "username-max-length",
		Field: FieldUsername,
		Check: func(r registration) *validator.FieldError {
			if utf8.RuneCountInString(r.Username) > MaxUsernameLength {
				return validator.Fail(CodeUsernameTooLong, "Username must be at most 150 characters.")
			}
			return nil
		},
	},
	{
		Name:  "username-characters",
		Field: FieldUsername,
		Check: func(r registration) *validator.FieldError {
			if !usernamePattern.MatchString(r.Username) {
				return validator.Fail(CodeInvalidUsername, "Username may contain only letters, digits and @/./+/-/_ characters.")
			}
			return nil
		},
	},
	{
		Name:  "username-unique",
		Field: FieldUsername,
		Check: func(r registration) *validator.FieldError {
			if r.usernameTaken {
				return validator.Fail(CodeDuplicateUsername, "A user with that username already exists.")
			}
			return nil
		},
	},
	{
		Name:  "email-required",
		Field: FieldEmail,
		Check: func(r registration) *validator.FieldError {
			if r.Email == "" {
				return validator.Fail(validator.Required, "Email is required.")
			}
			return nil
		},
	},
	{
		Name:  "email-format",
		Field: FieldEmail,
		Check: func(r registration) *validator.FieldError {
			if !isValidEmail(r.Email) {
				return validator.Fail(CodeInvalidEmail, "Enter a valid email address.")
			}
			return nil
		},
	},
	{
		Name:  "email-unique",
		Field: FieldEmail,
		Check: func(r registration) *validator.FieldError {
			if r.emailTaken {
				return validator.Fail(CodeDuplicateEmail, "A user with that email already exists.")
			}
			return nil
		},
	},
	{
		Name:  "password-required",
		Field: FieldPassword,
		Check: func(r registration) *validator.FieldError {
			if r.Password == "" {
				return validator.Fail(validator.Required, "Password is required.")
			}
			return nil
		},
	},
	{
		Name:  "password-max-length",
		Field: FieldPassword,
		Check: func(r registration) *validator.FieldError {
			if len(r.Password) > MaxPasswordBytes {
				return validator.Fail(CodePasswordTooLong, "Password must be at most 72 bytes.")
			}
			return nil
		},
	},
	{
		Name:  "password-confirmation-required",
		Field: FieldPasswordConfirmation,
		Check: func(r registration) *validator.FieldError {
			if r.PasswordConfirmation == "" {
				return validator.Fail(validator.Required, "Password confirmation is required.")
			}
			return nil
		},
	},
	{
		Name:      "passwords-match",
		Field:     validator.NonField,
		DependsOn: []string{FieldPassword, FieldPasswordConfirmation},
		Check: func(r registration) *validator.FieldError {
			if r.Password != r.PasswordConfirmation {
				return validator.Fail(CodePasswordMismatch, "The two password fields didn't match.")
			}
			return nil
		},
	},
}

// isValidEmail accepts a bare address (no display name) with a dotted domain.
func isValidEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
