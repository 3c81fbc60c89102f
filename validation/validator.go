package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validator reads the same `binding` tags gin uses for request binding,
	// so service inputs are validated identically whether or not they came over HTTP.
	Validator = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// ValidateStruct validates s against its binding tags
func ValidateStruct(s interface{}) error {
	return Validator.Struct(s)
}

// Describe turns a validation error into a short human readable message
func Describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
