// Package schemas holds the request bodies accepted by the write operations.
// They carry no storage concerns: Decode turns a raw payload into a checked
// value and reports every offending field by its JSON name.
package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/counselhub/counselhub.go/common"
	"github.com/counselhub/counselhub.go/lib/money"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// defaulter fills optional fields the payload left out.
type defaulter interface {
	applyDefaults()
}

// checker runs rules that span several fields.
type checker interface {
	check() error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := decimalOf(field); ok {
			return d.String()
		}
		return nil
	}, money.Amount{}, money.Hours{}, money.Quantity{}, money.Percent{})
	mustRegister(v, "dgt", func(d decimal.Decimal) bool { return d.IsPositive() })
	mustRegister(v, "dgte", func(d decimal.Decimal) bool { return !d.IsNegative() })
	mustRegister(v, "pct", func(d decimal.Decimal) bool {
		return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
	})
	if err := v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enum)
		return ok && e.IsValid()
	}); err != nil {
		panic(err)
	}
	return v
}

// enum is implemented by the closed string sets in package common.
type enum interface {
	IsValid() bool
}

// mustRegister adds a decimal rule. The field reaches it as the string
// produced by the custom type func above.
func mustRegister(v *validator.Validate, tag string, rule func(decimal.Decimal) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && rule(d)
	})
	if err != nil {
		panic(err)
	}
}

func decimalOf(field reflect.Value) (decimal.Decimal, bool) {
	switch v := field.Interface().(type) {
	case money.Amount:
		return v.Decimal, true
	case money.Hours:
		return v.Decimal, true
	case money.Quantity:
		return v.Decimal, true
	case money.Percent:
		return v.Decimal, true
	}
	return decimal.Zero, false
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Decode unmarshals payload into a T field by field so that type, category and
// precision failures name their field, applies declared defaults, then runs
// the validate tags and cross-field checks. All problems found are returned
// together as common.ValidationErrors.
func Decode[T any](payload []byte) (*T, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, common.ValidationErrors{common.NewValidationError("", "json", "payload is not a JSON object: %v", err)}
	}
	out := new(T)
	rv := reflect.ValueOf(out).Elem()
	if rv.Kind() != reflect.Struct {
		panic(fmt.Sprintf("schemas: Decode needs a struct type, got %s", rv.Type()))
	}

	var errs common.ValidationErrors
	for i := 0; i < rv.NumField(); i++ {
		name := jsonName(rv.Type().Field(i))
		value, ok := raw[name]
		if name == "" || !ok {
			continue
		}
		if err := json.Unmarshal(value, rv.Field(i).Addr().Interface()); err != nil {
			errs = append(errs, fieldError(name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate applies defaults, then runs the validate tags and cross-field
// checks of an already populated schema value.
func Validate(s interface{}) error {
	if d, ok := s.(defaulter); ok {
		d.applyDefaults()
	}
	var errs common.ValidationErrors
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, common.NewValidationError(fieldPath(fe), fe.Tag(), "%s", describe(fe)))
		}
	}
	if c, ok := s.(checker); ok {
		if err := c.check(); err != nil {
			more, ok := asValidationErrors(err)
			if !ok && len(errs) == 0 {
				// domain errors such as an unbalanced journal keep their type
				return err
			}
			errs = append(errs, more...)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func fieldError(name string, err error) *common.ValidationError {
	var valErr *common.ValidationError
	var precErr *common.PrecisionLossError
	switch {
	case errors.As(err, &precErr):
		precErr.Field = name
		return common.NewValidationError(name, "precision", "%s", precErr.Error())
	case errors.As(err, &valErr):
		return common.NewValidationError(name, valErr.Rule, "%s", valErr.Message)
	}
	return common.NewValidationError(name, "type", "%s has the wrong type", name)
}

// fieldPath drops the struct name prefix so nested fields read lines[0].account_id.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "dgt":
		return field + " must be greater than 0"
	case "dgte":
		return field + " must not be negative"
	case "pct":
		return field + " must be between 0 and 100"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "enum":
		return fmt.Sprintf("%s has an unknown value %q", field, fmt.Sprint(fe.Value()))
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}

func asValidationErrors(err error) (common.ValidationErrors, bool) {
	var errs common.ValidationErrors
	if errors.As(err, &errs) {
		return errs, true
	}
	var one *common.ValidationError
	if errors.As(err, &one) {
		return common.ValidationErrors{one}, true
	}
	return common.ValidationErrors{common.NewValidationError("", "invalid", "%s", err.Error())}, false
}
