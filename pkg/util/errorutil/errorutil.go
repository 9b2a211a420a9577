package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// TicketIDNotExistsMessage is returned when an operation targets an unknown ticket.
const TicketIDNotExistsMessage = "ticket id does not exist"

// ArgumentNullMessage is the message format for missing required arguments.
const ArgumentNullMessage = "value cannot be null (parameter '%s')"

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewArgumentNull reports a required argument that was not supplied.
func NewArgumentNull(param string) error {
	return NewDomainError("ARGUMENT_NULL", fmt.Sprintf(ArgumentNullMessage, param), http.StatusBadRequest,
		map[string]any{"parameter": param})
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewTicketNotFound reports a ticket identity with no stored ticket.
func NewTicketNotFound(ticketID int) error {
	return NewDomainError("TICKET_NOT_FOUND", TicketIDNotExistsMessage, http.StatusNotFound,
		map[string]any{"ticket_id": ticketID})
}

// NewTicketInactive reports an update aimed at a removed ticket.
func NewTicketInactive(ticketID int) error {
	return NewDomainError("TICKET_INACTIVE", "ticket has been removed", http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

// NewStorageError wraps a failure to copy an uploaded file.
func NewStorageError(err error) error {
	return &DomainError{
		Code:       "FILE_STORAGE_FAILED",
		Message:    "failed to store uploaded file",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
