package utils

import "github.com/gofiber/fiber/v2"

// Envelope is the JSON shape shared by every essay API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes a 200 envelope. An empty message becomes "success".
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return Respond(c, fiber.StatusOK, data, message, meta)
}

// Respond writes a success envelope with the given status.
func Respond(c *fiber.Ctx, status int, data interface{}, message string, meta interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// Fail writes an error envelope. Details carry field errors or the rejected outcome.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(Envelope{
		Success: false,
		Message: message,
		Details: details,
	})
}
