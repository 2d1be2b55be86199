package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"sales-deck-generator/internal/model"
)

var labels = map[string]string{
	model.FieldCompanyName:   "Company name",
	model.FieldIndustry:      "Industry",
	model.FieldBuyerPersona:  "Buyer persona",
	model.FieldMainPainPoint: "Main pain point",
	model.FieldUseCase:       "Use case",
}

type rule struct {
	tag       string
	maxLength int
}

var (
	validate = newValidate()
	// rules is read from the validate tags on model.FormFields, keyed by the
	// field's json name.
	rules = fieldRules()
)

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func fieldRules() map[string]rule {
	out := make(map[string]rule)
	t := reflect.TypeOf(model.FormFields{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || tag == "-" {
			continue
		}
		r := rule{tag: tag}
		for _, part := range strings.Split(tag, ",") {
			if p, ok := strings.CutPrefix(part, "max="); ok {
				r.maxLength, _ = strconv.Atoi(p)
			}
		}
		out[jsonName(f)] = r
	}
	return out
}

// MaxLength returns the character limit for a field, or 0 for unknown keys.
func MaxLength(key string) int {
	return rules[key].maxLength
}

// Label returns the human readable name of a field.
func Label(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return key
}

// Validate checks every text field of the form. The logo is checked when it is
// attached, not here.
func Validate(fields model.FormFields) model.FieldErrors {
	errs := make(model.FieldErrors)
	var verrs validator.ValidationErrors
	if err := validate.Struct(fields); errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs[fe.Field()] = message(fe.Field(), fe)
		}
	}
	return errs
}

// Field checks a single text field by key.
func Field(key, value string) error {
	r, ok := rules[key]
	if !ok {
		return fmt.Errorf("unknown field: %s", key)
	}
	var verrs validator.ValidationErrors
	if err := validate.Var(value, r.tag); errors.As(err, &verrs) {
		return errors.New(message(key, verrs[0]))
	}
	return nil
}

func message(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return Label(key) + " is required"
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", Label(key), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", Label(key))
}
