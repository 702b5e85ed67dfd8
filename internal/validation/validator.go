// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/folio/internal/models"
)

// ErrorCode is the API error code used for every validation failure.
const ErrorCode = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed constraint. Field is the JSON name of the field
// when the struct declares one, otherwise the Go field name.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   any
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Errors is the set of constraints a value failed.
type Errors []FieldError

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve))
	for i, fe := range ve {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// Has reports whether field failed the given tag.
func (ve Errors) Has(field, tag string) bool {
	for _, fe := range ve {
		if fe.Field == field && fe.Tag == tag {
			return true
		}
	}
	return false
}

// APIError is the error body the api package renders for a failed request.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError renders the errors for an HTTP response. A single failure keeps
// its own message; several are listed under "fields".
func (ve Errors) ToAPIError() *APIError {
	switch len(ve) {
	case 0:
		return &APIError{Code: ErrorCode, Message: "Validation failed"}
	case 1:
		fe := ve[0]
		return &APIError{
			Code:    ErrorCode,
			Message: fe.Message,
			Details: map[string]any{"field": fe.Field, "tag": fe.Tag, "value": fe.Value},
		}
	}

	fields := make([]map[string]any, len(ve))
	messages := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = map[string]any{"field": fe.Field, "tag": fe.Tag, "message": fe.Message}
		messages[i] = fe.Message
	}
	return &APIError{
		Code:    ErrorCode,
		Message: strings.Join(messages, "; "),
		Details: map[string]any{"fields": fields},
	}
}

// GetValidator returns the shared validator with the domain enum tags
// registered. Safe for concurrent use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		for tag, valid := range domainValidators {
			if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			}); err != nil {
				panic(fmt.Sprintf("register %s validator: %v", tag, err))
			}
		}
	})
	return validate
}

// ValidateStruct validates s and returns nil or the failed constraints.
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return fmt.Errorf("%w: %s", ErrInvalidRequest, verr.Error())
//	}
func ValidateStruct(s any) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

var domainValidators = map[string]func(string) bool{
	"algorithm":         func(v string) bool { return models.Algorithm(v).Valid() },
	"feedback_type":     func(v string) bool { return models.FeedbackType(v).Valid() },
	"interaction_type":  func(v string) bool { return models.InteractionType(v).Valid() },
	"reading_level":     func(v string) bool { return models.ReadingLevel(v).Valid() },
	"reading_frequency": func(v string) bool { return models.ReadingFrequency(v).Valid() },
	"trend_period":      func(v string) bool { _, err := models.TrendPeriod(v).Duration(); return err == nil },
	"trend_type":        func(v string) bool { return models.TrendType(v).Valid() },
}

// Messages keyed by tag. "%[1]s" is the field and "%[2]s" the tag parameter.
var messages = map[string]string{
	"required": "%[1]s is required",
	"oneof":    "%[1]s must be one of: %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
	"gt":       "%[1]s must be greater than %[2]s",
	"lt":       "%[1]s must be less than %[2]s",

	"algorithm":         "%[1]s must be one of: content_based collaborative popularity hybrid",
	"feedback_type":     "%[1]s must be a known feedback type",
	"interaction_type":  "%[1]s must be a known interaction type",
	"reading_level":     "%[1]s must be one of: beginner intermediate advanced expert",
	"reading_frequency": "%[1]s must be one of: daily weekly monthly occasional",
	"trend_period":      "%[1]s must be one of: day week month",
	"trend_type":        "%[1]s must be one of: overall genre new_releases",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := messages[tag]; ok {
		if strings.Contains(tmpl, "%[2]s") {
			return fmt.Sprintf(tmpl, field, param)
		}
		return fmt.Sprintf(tmpl, field)
	}

	// min and max count characters for strings and elements for slices.
	verb, unit := "be", ""
	switch fe.Kind() {
	case reflect.String:
		verb, unit = "have", " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		verb, unit = "have", " entries"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must %s at least %s%s", field, verb, param, unit)
	case "max":
		return fmt.Sprintf("%s must %s at most %s%s", field, verb, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
