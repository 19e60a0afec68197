package pkgerrors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeNonExistingKey = -1001
	CodeJSONParsing    = -1002
	CodeDuplicateKey   = -1003
	CodeValidation     = -1004
	CodeRateLimited    = -1005

	CodeInvalidCustomer      = -2001
	CodeProductsNotFound     = -2002
	CodeInsufficientStock    = -2003
	CodeInvalidQuantity      = -2004
	CodeProductAlreadyExists = -2005
	CodeOrderNotFound        = -2006

	CodeUnknown = -9999
)

const (
	MsgInvalidCustomer      = "Customer does not exists."
	MsgProductsNotFound     = "One or more products was not found."
	MsgInsufficientStock    = "One or more products are out of stock."
	MsgInvalidQuantity      = "Product quantity must be greater than zero."
	MsgProductAlreadyExists = "Product with this name already exists."
	MsgOrderNotFound        = "Order does not exists."
)

type AppError struct {
	Code    int
	Message string
	// Details lists the offending identifiers, when known.
	Details []string
	Err     error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.Details, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so the sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrDuplicateKey   = &AppError{Code: CodeDuplicateKey, Message: "duplicate key violation"}
	ErrNonExistingKey = &AppError{Code: CodeNonExistingKey, Message: "non-existing key"}
	ErrJSONParsing    = &AppError{Code: CodeJSONParsing, Message: "JSON parsing failed"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "request validation failed"}
	ErrRateLimited    = &AppError{Code: CodeRateLimited, Message: "too many requests"}

	ErrInvalidCustomer      = &AppError{Code: CodeInvalidCustomer, Message: MsgInvalidCustomer}
	ErrProductsNotFound     = &AppError{Code: CodeProductsNotFound, Message: MsgProductsNotFound}
	ErrInsufficientStock    = &AppError{Code: CodeInsufficientStock, Message: MsgInsufficientStock}
	ErrInvalidQuantity      = &AppError{Code: CodeInvalidQuantity, Message: MsgInvalidQuantity}
	ErrProductAlreadyExists = &AppError{Code: CodeProductAlreadyExists, Message: MsgProductAlreadyExists}
	ErrOrderNotFound        = &AppError{Code: CodeOrderNotFound, Message: MsgOrderNotFound}
)

func NewDuplicateKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateKey,
		Message: "duplicate key violation",
		Err:     err,
	}
}

func NewNonExistingKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeNonExistingKey,
		Message: "key does not exist",
		Err:     err,
	}
}

func NewJSONParsingError(err error) *AppError {
	return &AppError{
		Code:    CodeJSONParsing,
		Message: "failed to parse JSON",
		Err:     err,
	}
}

func NewValidationError(problems ...string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "request validation failed",
		Details: problems,
	}
}

func NewRateLimitedError(clientID string) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: "too many requests",
		Details: []string{clientID},
	}
}

func NewInvalidCustomerError(customerID string) *AppError {
	return &AppError{
		Code:    CodeInvalidCustomer,
		Message: MsgInvalidCustomer,
		Details: []string{customerID},
	}
}

// NewProductsNotFoundError takes the ids that could not be resolved; it may be empty when
// the whole lookup came back empty.
func NewProductsNotFoundError(missingIDs ...string) *AppError {
	return &AppError{
		Code:    CodeProductsNotFound,
		Message: MsgProductsNotFound,
		Details: missingIDs,
	}
}

func NewInsufficientStockError(productIDs ...string) *AppError {
	return &AppError{
		Code:    CodeInsufficientStock,
		Message: MsgInsufficientStock,
		Details: productIDs,
	}
}

func NewInvalidQuantityError(productIDs ...string) *AppError {
	return &AppError{
		Code:    CodeInvalidQuantity,
		Message: MsgInvalidQuantity,
		Details: productIDs,
	}
}

func NewProductAlreadyExistsError(name string) *AppError {
	return &AppError{
		Code:    CodeProductAlreadyExists,
		Message: MsgProductAlreadyExists,
		Details: []string{name},
	}
}

func NewOrderNotFoundError(orderID string) *AppError {
	return &AppError{
		Code:    CodeOrderNotFound,
		Message: MsgOrderNotFound,
		Details: []string{orderID},
	}
}

func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsDuplicateKeyError(err error) bool {
	return hasCode(err, CodeDuplicateKey)
}

func IsNonExistingKeyError(err error) bool {
	return hasCode(err, CodeNonExistingKey)
}

func IsJSONParsingError(err error) bool {
	return hasCode(err, CodeJSONParsing)
}

func IsValidationError(err error) bool {
	return hasCode(err, CodeValidation)
}

func IsInvalidCustomerError(err error) bool {
	return hasCode(err, CodeInvalidCustomer)
}

func IsProductsNotFoundError(err error) bool {
	return hasCode(err, CodeProductsNotFound)
}

func IsInsufficientStockError(err error) bool {
	return hasCode(err, CodeInsufficientStock)
}

func IsInvalidQuantityError(err error) bool {
	return hasCode(err, CodeInvalidQuantity)
}

func GetErrorCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func IsProductAlreadyExistsError(err error) bool {
	return hasCode(err, CodeProductAlreadyExists)
}

func IsOrderNotFoundError(err error) bool {
	return hasCode(err, CodeOrderNotFound)
}
