package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// bindAndValidate decodes the body into req and validates it.  On
// failure it has already written a 400 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "details": describe(err)})
	}
	return true, nil
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			out = append(out, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return out
}
