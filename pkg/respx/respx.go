// Package respx wraps every HTTP response, success or error, in the same
// envelope.
package respx

import (
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// DefaultMessage is used when a handler does not provide one.
const DefaultMessage = "Request completed"

// ErrorCodeHeader carries the errx code of a failed request.
const ErrorCodeHeader = "X-Error-Code"

// Action tells the client whether the flow may continue.
type Action string

const (
	ActionContinue Action = "CONTINUE"
	ActionCancel   Action = "CANCEL"
)

// Envelope is the body of every response.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Timestamp  int64       `json:"timestamp"`
	Path       string      `json:"path"`
	Action     Action      `json:"action"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

var now = time.Now

// New builds an envelope. A nil data becomes {}.
func New(status int, path, message string, data interface{}) Envelope {
	if message == "" {
		message = DefaultMessage
	}
	if data == nil {
		data = fiber.Map{}
	}
	action := ActionContinue
	if status >= fiber.StatusBadRequest {
		action = ActionCancel
	}
	return Envelope{
		StatusCode: status,
		Success:    status < fiber.StatusBadRequest,
		Timestamp:  now().UnixMilli(),
		Path:       path,
		Action:     action,
		Message:    message,
		Data:       data,
	}
}

// Send writes an enveloped response with the given status.
func Send(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(New(status, c.OriginalURL(), message, data))
}

// OK writes a 200 envelope
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return Send(c, fiber.StatusOK, message, data)
}

// Created writes a 201 envelope
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return Send(c, fiber.StatusCreated, message, data)
}

// Fail writes an error envelope. Errors always carry data {}.
func Fail(c *fiber.Ctx, status int, message string) error {
	return Send(c, status, message, nil)
}

// ErrorHandler is the fiber.Config ErrorHandler. It converts *errx.Error and
// *fiber.Error into envelopes; anything else is a 500 with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	code := string(errx.TypeInternal)

	var appErr *errx.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		status = appErr.HTTPStatus
		message = appErr.Message
		code = appErr.Code
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
		code = "HTTP_" + strconv.Itoa(status)
	}

	entry := logx.WithContext(c.UserContext()).WithFields(logx.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": status,
		"code":   code,
	}).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.Set(ErrorCodeHeader, code)
	return Fail(c, status, message)
}
