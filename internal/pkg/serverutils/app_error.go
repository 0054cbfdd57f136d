package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to clients.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidationError  = "VALIDATION_ERROR"
	CodePersistenceError = "PERSISTENCE_ERROR"
	CodeExecutionTimeout = "EXECUTION_TIMEOUT"
	CodeExecutionFault   = "EXECUTION_FAULT"
)

type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: message}
}

func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidationError, Status: fiber.StatusBadRequest, Message: message, Err: err}
}

func NewPersistenceError(message string, err error) *AppError {
	return &AppError{Code: CodePersistenceError, Status: fiber.StatusInternalServerError, Message: message, Err: err}
}
