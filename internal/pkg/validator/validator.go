package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"cleanbook/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Check validates v and reports failures as a domain validation error
// listing "Field:tag" pairs sorted by field name.
func Check(v interface{}) error {
	fields := Validate(v)
	if len(fields) == 0 {
		return nil
	}

	parts := make([]string, 0, len(fields))
	for f, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", f, tag))
	}
	sort.Strings(parts)
	return domain.Validationf("invalid fields %s", strings.Join(parts, ", "))
}
