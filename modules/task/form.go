package task

import (
	"strings"
	"unicode/utf8"

	"github.com/example/task-tracker/pkg/validator"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 100

// Form field names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldImportant   = "important"
)

// Validation codes reported by ValidateForm.
const (
	CodeTitleRequired validator.Code = "title_required"
	CodeTitleTooLong  validator.Code = "title_too_long"
)

var formRules = []validator.Rule[Fields]{
	{
		Name:  "title-required",
		Field: FieldTitle,
		Check: func(f Fields) *validator.FieldError {
			if f.Title == "" {
				return validator.Fail(CodeTitleRequired, "Title is required.")
			}
			return nil
		},
	},
	{
		Name:  "title-max-length",
		Field: FieldTitle,
		Check: func(f Fields) *validator.FieldError {
			if utf8.RuneCountInString(f.Title) > MaxTitleLength {
				return validator.Fail(CodeTitleTooLong, "Title must be at most 100 characters.")
			}
			return nil
		},
	},
}

// ValidateForm turns submitted form values into Fields. Values other than
// title, description and important are ignored, including any owner field.
func ValidateForm(values map[string]string) (Fields, validator.Errors) {
	fields := Fields{
		Title:       strings.TrimSpace(values[FieldTitle]),
		Description: strings.TrimSpace(values[FieldDescription]),
		Important:   parseCheckbox(values[FieldImportant]),
	}
	if errs := validator.Validate(fields, formRules); !errs.Valid() {
		return fields, errs
	}
	return fields, nil
}

// Validate re-checks already parsed fields.
func (f Fields) Validate() validator.Errors {
	return validator.Validate(f, formRules)
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "0", "off":
		return false
	default:
		return true
	}
}
