package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// planForm holds the fields of POST /plans besides the file.
type planForm struct {
	K          int      `validate:"required,min=1"`
	Format     string   `validate:"oneof=json xlsx parquet"`
	Deliverers []string `validate:"omitempty,dive,required"`
}

// elbowForm holds the fields of POST /elbow besides the file.
type elbowForm struct {
	MaxK int `validate:"min=0,max=50"`
}

func validateForm(v any) error {
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(e validator.FieldError) string {
	field := formName(e.StructField())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func formName(field string) string {
	switch field {
	case "MaxK":
		return "max_k"
	default:
		return strings.ToLower(field)
	}
}
