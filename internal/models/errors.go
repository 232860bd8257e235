package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to API clients.
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeEmailUnverified   = "EMAIL_UNVERIFIED"
	CodeForbiddenRole     = "FORBIDDEN_ROLE"
	CodeForbiddenNotOwner = "FORBIDDEN_NOT_OWNER"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidUser       = "INVALID_USER"
	CodeRateLimited       = "RATE_LIMITED"
	CodeStoreFailure      = "STORE_FAILURE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status maps the error code to an HTTP status.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeInvalidInput, CodeInvalidUser:
		return fiber.StatusBadRequest
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeEmailUnverified, CodeForbiddenRole, CodeForbiddenNotOwner:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func NewEmailUnverifiedError() *AppError {
	return &AppError{Code: CodeEmailUnverified, Message: "Email verification required"}
}

func NewForbiddenRoleError() *AppError {
	return &AppError{Code: CodeForbiddenRole, Message: "You don't have permission to access this resource"}
}

func NewForbiddenNotOwnerError(resource string) *AppError {
	return &AppError{
		Code:    CodeForbiddenNotOwner,
		Message: fmt.Sprintf("You are not the owner of this %s", resource),
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

func NewInvalidUserError() *AppError {
	return &AppError{Code: CodeInvalidUser, Message: "User is not active"}
}

func NewRateLimitedError() *AppError {
	return &AppError{Code: CodeRateLimited, Message: "Too many requests, please try again later."}
}

func NewStoreError(err error) *AppError {
	return &AppError{Code: CodeStoreFailure, Message: "Failed to access the data store", Err: err}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError writes the error envelope using the status derived from the error code.
// Errors that are not AppErrors are reported as store failures without their text.
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{Code: CodeStoreFailure, Message: "Internal server error"}
	}

	response := ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
	}
	if appErr.Err != nil {
		response.Details = appErr.Err.Error()
	}

	return c.Status(appErr.Status()).JSON(response)
}
