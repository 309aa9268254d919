package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their form (json) name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Fields validates s and returns one message per failing field, keyed by json
// name. The first failing rule wins. A nil map means s is valid.
func Fields(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "This value should not be blank."
	case "email":
		return "This value is not a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("This value is too short. It should have %s characters or more.", param)
		}
		return fmt.Sprintf("This value should be %s or more.", param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("This value is too long. It should have %s characters or less.", param)
		}
		return fmt.Sprintf("This value should be %s or less.", param)
	case "oneof":
		return fmt.Sprintf("The value you selected is not a valid choice. Choose one of [%s].", param)
	case "eqfield":
		return "The values do not match."
	default:
		return fmt.Sprintf("This value failed the %q rule.", fe.Tag())
	}
}
