package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var backendNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("backend_name", backendNameValidation)
	_ = validate.RegisterValidation("not_blank", notBlankValidation)
	validate.RegisterAlias("not_empty", "required")
	return validate
}

// backendNameValidation accepts names that are safe to use as a URL path segment.
func backendNameValidation(fl validator.FieldLevel) bool {
	return backendNamePattern.MatchString(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func ParseValidationError(errors validator.ValidationErrors) map[string]interface{} {
	fieldErrors := make(map[string]interface{})
	for _, err := range errors {
		fieldErrors[getFieldName(err)] = msgForFieldError(err)
	}
	return fieldErrors
}

// msgForFieldError gets the message for the given validation error (tag).
func msgForFieldError(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "not_empty":
		return "This field cannot be empty"
	case "not_blank":
		return "This field cannot be blank"
	case "backend_name":
		return "Should only contain letters, digits, '.', '_' and '-', starting with a letter or digit"
	case "url", "http_url":
		return "Invalid URL provided"
	case "oneof":
		params := strings.Join(strings.Split(fieldError.Param(), " "), ", ")
		return fmt.Sprintf("Unexpected value %q. Expected one of the following values: %s", fieldError.Value(), params)
	case "gt":
		if fieldError.Kind() == reflect.Slice || fieldError.Kind() == reflect.Array {
			return "Should have at least 1 element"
		}
		return fmt.Sprintf("Should be greater than %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("Should be greater than or equal %s", fieldError.Param())
	default:
		return "Invalid value"
	}
}

func getFieldName(fieldError validator.FieldError) string {
	// Ex.: structName.FieldName, structName.nestedStructName.nestedStructFieldName, structName.nestedStructName.nestedStructName....
	namespace := strings.Split(fieldError.StructNamespace(), ".")
	length := len(namespace)
	if length == 2 {
		return lcFirst(namespace[1])
	}

	if length > 2 {
		return fmt.Sprintf("%s.%s", lcFirst(namespace[length-2]), lcFirst(namespace[length-1]))
	}

	return lcFirst(namespace[0])
}

// lcFirst lowers the case of the first letter of the given string.
//
//	Example: Address -> address
func lcFirst(str string) string {
	for index, letter := range str {
		return string(unicode.ToLower(letter)) + str[index+1:]
	}
	return ""
}
