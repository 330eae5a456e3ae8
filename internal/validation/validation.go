// Package validation applies static rule lists to a decoded JSON body before
// anything touches the store.
package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/khoahotran/devprofile/pkg/apperror"
)

const location = "body"

var dateLayouts = []string{"2006-01-02", time.RFC3339}

var validate = validator.New()

// Body is a request payload as produced by encoding/json into map[string]any.
type Body map[string]any

// String returns the field when it holds a JSON string.
func (b Body) String(field string) (string, bool) {
	v, ok := b[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Present reports whether the field holds a non-blank value.
func (b Body) Present(field string) bool {
	v, ok := b[field]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

type Rule struct {
	Field   string
	Message string
	Check   func(b Body) bool
}

// Required wants a non-blank JSON string. Numbers, booleans and objects fail.
func Required(field, msg string) Rule {
	return Rule{Field: field, Message: msg, Check: func(b Body) bool {
		s, ok := b.String(field)
		return ok && strings.TrimSpace(s) != ""
	}}
}

// StringList wants either a non-blank string or a non-empty array whose
// items are all strings.
func StringList(field, msg string) Rule {
	return Rule{Field: field, Message: msg, Check: func(b Body) bool {
		switch v := b[field].(type) {
		case string:
			return strings.TrimSpace(v) != ""
		case []any:
			if len(v) == 0 {
				return false
			}
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	}}
}

func Email(field, msg string) Rule {
	return Rule{Field: field, Message: msg, Check: func(b Body) bool {
		s, ok := b.String(field)
		return ok && validate.Var(s, "required,email") == nil
	}}
}

func MinLength(field string, n int, msg string) Rule {
	return Rule{Field: field, Message: msg, Check: func(b Body) bool {
		s, ok := b.String(field)
		return ok && utf8.RuneCountInString(s) >= n
	}}
}

// Date accepts an absent field; a present one must parse.
func Date(field, msg string) Rule {
	return Rule{Field: field, Message: msg, Check: func(b Body) bool {
		if !b.Present(field) {
			return true
		}
		s, ok := b.String(field)
		if !ok {
			return false
		}
		_, err := ParseDate(s)
		return err == nil
	}}
}

// DateOrder requires from < to, and only when to is present.
func DateOrder(from, to, msg string) Rule {
	return Rule{Field: from, Message: msg, Check: func(b Body) bool {
		if !b.Present(to) {
			return true
		}
		fs, _ := b.String(from)
		ts, _ := b.String(to)
		f, err := ParseDate(fs)
		if err != nil {
			return true
		}
		t, err := ParseDate(ts)
		if err != nil {
			return true
		}
		return f.Before(t)
	}}
}

// Validate runs rules in order. Once a field fails, its later rules are
// skipped so each field reports at most one error.
func Validate(b Body, rules []Rule) []apperror.FieldError {
	var errs []apperror.FieldError
	failed := make(map[string]bool)
	for _, r := range rules {
		if failed[r.Field] {
			continue
		}
		if r.Check(b) {
			continue
		}
		failed[r.Field] = true
		errs = append(errs, apperror.FieldError{
			Msg:      r.Message,
			Param:    r.Field,
			Location: location,
			Value:    b[r.Field],
		})
	}
	return errs
}

func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
