// Package apperr carries HTTP-facing errors from handlers to the fiber error
// handler, which renders them as {"detail": "..."}.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Error struct {
	Status int
	Detail string
	Header map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Detail, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

func BadRequest(detail string) *Error { return New(fiber.StatusBadRequest, detail) }

func Forbidden(detail string) *Error { return New(fiber.StatusForbidden, detail) }

func NotFound(detail string) *Error { return New(fiber.StatusNotFound, detail) }

func Unprocessable(detail string) *Error { return New(fiber.StatusUnprocessableEntity, detail) }

// Unauthorized includes the bearer challenge header clients expect.
func Unauthorized(detail string) *Error {
	e := New(fiber.StatusUnauthorized, detail)
	e.Header = map[string]string{fiber.HeaderWWWAuthenticate: "Bearer"}
	return e
}

func Internal(err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Detail: "Internal server error", Err: err}
}

// Handler is the fiber ErrorHandler for the API.
func Handler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *Error
		if !errors.As(err, &ae) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				ae = New(fe.Code, fe.Message)
			} else {
				ae = Internal(err)
			}
		}
		if ae.Status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		for k, v := range ae.Header {
			c.Set(k, v)
		}
		return c.Status(ae.Status).JSON(fiber.Map{"detail": ae.Detail})
	}
}
