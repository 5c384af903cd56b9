package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var phonePattern = regexp.MustCompile(`^[\+]?[(]?[0-9]{3}[)]?[-\s\.]?[0-9]{3}[-\s\.]?[0-9]{4,6}$`)

// fieldMessages holds the client facing message for each field and rule.
var fieldMessages = map[string]string{
	"email.required":           "Email is required",
	"email.email":              "Invalid email format",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters",
	"password.max":             "Password is too long",
	"name.min":                 "Name must be at least 2 characters",
	"name.max":                 "Name is too long",
	"phone.phone":              "Invalid phone number",
	"role.oneof":               "Invalid role",
	"otp.required":             "OTP must be 6 digits",
	"otp.len":                  "OTP must be 6 digits",
	"otp.numeric":              "OTP must contain only numbers",
	"currentPassword.required": "Current password is required",
	"newPassword.required":     "New password must be at least 6 characters",
	"newPassword.min":          "New password must be at least 6 characters",
	"newPassword.max":          "New password is too long",
	"token.required":           "Reset token is required",
	"refreshToken.required":    "Refresh token is required",
}

// requestValidator adapts validator/v10 to echo.Validator.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &requestValidator{v: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]goAccount.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, goAccount.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
		})
	}
	return &validationError{fields: fields}
}

// fieldPath drops the struct name from a namespace such as
// "registerBody.email".
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " failed " + fe.Tag()
}

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}
	return c.Validate(dst)
}
