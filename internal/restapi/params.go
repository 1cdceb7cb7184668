package restapi

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

const (
	defaultMaxCount        = 20
	defaultLocationRadiusM = 1000.0
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// collectFieldErrors validates params and merges any failures into fieldErrors.
func (api *RestAPI) collectFieldErrors(params any, fieldErrors map[string][]string) {
	err := api.validate.Struct(params)
	if err == nil {
		return
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		fieldErrors["_"] = append(fieldErrors["_"], err.Error())
		return
	}
	for _, fe := range invalid {
		name := fe.Field()
		if _, seen := fieldErrors[name]; seen {
			continue
		}
		fieldErrors[name] = append(fieldErrors[name], describeFieldError(fe))
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
