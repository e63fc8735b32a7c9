package validator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError - нарушения по полям: json-имя поля -> сообщение для клиента
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s (%s);", k, e.Errors[k])
	}
	return strings.TrimSuffix(b.String(), ";")
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	registerCustomRules(v)
	return &Validator{validate: v}
}

// jsonName - в ошибках поля называются так же, как в теле запроса
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate возвращает *ValidationError, если структура не прошла проверку
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{Errors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors[fe.Field()] = messageFor(fe)
	}
	return out
}

var fixedMessages = map[string]string{
	"required":      "This field is required",
	"email":         "Please provide a valid email",
	"url":           "Must be a valid URL",
	"uuid":          "Must be a valid id",
	"uuid4":         "Must be a valid id",
	"eqfield":       "Passwords are not the same!",
	"is-user-role":  "Role is either: user, guide, lead-guide, admin",
	"is-difficulty": "Difficulty is either: easy, medium, difficult",
	"latlng":        "Please provide latitude and longitude in the format lat,lng.",
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}

	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map, reflect.Array:
		unit = " items"
	}

	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("Must be at least %s%s", fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("Must be at most %s%s", fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s%s long", fe.Param(), unit)
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "ltfield":
		return fmt.Sprintf("Discount price (%v) should be below regular price", fe.Value())
	}
	return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
}
