package table

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var registerOnce sync.Once

// RegisterValidators adds the notblank tag to gin's validator and makes
// validation errors report json field names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// ToFieldErrors maps validator.ValidationErrors to FieldErrors labelled after
// rules. ok is false for any other error, such as malformed JSON.
func ToFieldErrors(err error, rules []Rule) (FieldErrors, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}

	labels := make(map[string]string, len(rules))
	for _, r := range rules {
		if r.Label != "" {
			labels[r.Field] = r.Label
		}
	}

	out := make(FieldErrors, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		label, ok := labels[field]
		if !ok {
			label = field
		}
		switch e.Tag() {
		case "required", "notblank":
			out = append(out, FieldError{Field: field, Message: fmt.Sprintf("%s è obbligatorio", label)})
		case "max":
			out = append(out, FieldError{Field: field, Message: fmt.Sprintf("%s supera i %s caratteri", label, e.Param())})
		default:
			out = append(out, FieldError{Field: field, Message: fmt.Sprintf("%s non valido", label)})
		}
	}
	return out, true
}
