// Package validator runs ordered, named validation rules against a candidate
// value and collects at most one error per field.
package validator

import (
	"sort"
	"strings"
)

// NonField is the key under which errors that concern several fields are stored.
const NonField = "__all__"

// Code identifies the kind of validation failure.
type Code string

// Required is shared by every rule that rejects an empty value.
const Required Code = "required"

// FieldError describes one failed rule.
type FieldError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Fail builds a FieldError. Rules return it, or nil when the candidate passes.
func Fail(code Code, message string) *FieldError {
	return &FieldError{Code: code, Message: message}
}

// Errors maps a field name to its first failure.
type Errors map[string]FieldError

// Valid reports whether no rule failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Has reports whether the field already failed a rule.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Code returns the failure code recorded for field, or "".
func (e Errors) Code(field string) Code {
	return e[field].Code
}

// Error renders the errors as "field: message" pairs in field order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field].Message)
	}
	return strings.Join(parts, "; ")
}

// Rule is a single named check against a candidate of type T.
//
// Rules with an empty DependsOn are field rules and run first, in order; once
// a field has failed, later rules for the same field are skipped. Rules with
// DependsOn run afterwards, and only when none of the fields they depend on
// have failed.
type Rule[T any] struct {
	Name      string
	Field     string
	DependsOn []string
	Check     func(T) *FieldError
}

// Validate evaluates rules against candidate.
func Validate[T any](candidate T, rules []Rule[T]) Errors {
	errs := Errors{}

	for _, rule := range rules {
		if len(rule.DependsOn) > 0 || errs.Has(rule.Field) {
			continue
		}
		if fe := rule.Check(candidate); fe != nil {
			errs[rule.Field] = *fe
		}
	}

	for _, rule := range rules {
		if len(rule.DependsOn) == 0 || errs.Has(rule.Field) || anyFailed(errs, rule.DependsOn) {
			continue
		}
		if fe := rule.Check(candidate); fe != nil {
			errs[rule.Field] = *fe
		}
	}

	return errs
}

func anyFailed(errs Errors, fields []string) bool {
	for _, field := range fields {
		if errs.Has(field) {
			return true
		}
	}
	return false
}
