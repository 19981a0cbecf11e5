package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"study-backend/apperr"
	"study-backend/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.IsRole(fl.Field().String())
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.IsStatus(fl.Field().String())
	})
	return v
}

// bind decodes the JSON body into out and validates it. Both failures are 422.
func bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Unprocessable("invalid request body: " + err.Error())
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			detail := fmt.Sprintf("%s: failed on %s", fe.Field(), fe.Tag())
			if fe.Param() != "" {
				detail += "=" + fe.Param()
			}
			return apperr.Unprocessable(detail)
		}
		return apperr.Unprocessable(err.Error())
	}
	return nil
}
