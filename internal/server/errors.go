package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err, code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and code for the request log.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isSupplierValidationError(err),
		isOrderValidationError(err),
		isLineItemValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, orderdomain.ErrLineItemNotOwned)
}

func conflictMessage(err error) string {
	if errors.Is(err, orderdomain.ErrLineItemNotOwned) {
		return "line item belongs to another order"
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, supplierdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, lineitemdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isSupplierValidationError(err error) bool {
	return isAny(err,
		supplierdomain.ErrInvalidName,
		supplierdomain.ErrInvalidEmail,
		supplierdomain.ErrInvalidID,
		supplierdomain.ErrInvalidPageToken,
		supplierdomain.ErrUnknownSupplier,
	)
}

func isOrderValidationError(err error) bool {
	return isAny(err,
		orderdomain.ErrMissingSupplier,
		orderdomain.ErrMissingLineItems,
		orderdomain.ErrTooManyLineItems,
		orderdomain.ErrDuplicateLineItem,
		orderdomain.ErrAmountOutOfRange,
		orderdomain.ErrQuantityOutOfRange,
		orderdomain.ErrInvalidID,
		orderdomain.ErrInvalidPageToken,
	)
}

func isLineItemValidationError(err error) bool {
	return isAny(err,
		lineitemdomain.ErrInvalidItemName,
		lineitemdomain.ErrInvalidQuantity,
		lineitemdomain.ErrInvalidPriceWithoutTax,
		lineitemdomain.ErrInvalidTaxName,
		lineitemdomain.ErrInvalidTaxAmount,
		lineitemdomain.ErrInvalidOrder,
		lineitemdomain.ErrInvalidID,
		lineitemdomain.ErrInvalidPageToken,
	)
}

func isAuditValidationError(err error) bool {
	return isAny(err,
		auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidAction,
	)
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	var lineErr *orderdomain.LineItemError
	if errors.As(err, &lineErr) {
		return lineErr.Err.Error()
	}
	return err.Error()
}

func validationErrorField(err error, code string) string {
	field := ""
	switch {
	case code == "invalid_request":
		field = "request"
	case code == "missing_supplier", code == "unknown_supplier":
		field = "supplier"
	case code == "missing_line_items", code == "too_many_line_items",
		code == "amount_out_of_range", code == "quantity_out_of_range":
		field = "line_items"
	case code == "duplicate_line_item":
		field = "id"
	case strings.HasPrefix(code, "invalid_"):
		field = strings.TrimPrefix(code, "invalid_")
	}

	var lineErr *orderdomain.LineItemError
	if errors.As(err, &lineErr) {
		return fmt.Sprintf("line_items[%d].%s", lineErr.Index, field)
	}
	return field
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_supplier":
		return "supplier is required"
	case "missing_line_items":
		return "line_items is required"
	case "unknown_supplier":
		return "supplier id does not exist"
	case "duplicate_line_item":
		return "line item id appears more than once"
	case "too_many_line_items":
		return "too many line items"
	case "amount_out_of_range":
		return "order totals exceed the supported amount"
	case "quantity_out_of_range":
		return "order total quantity exceeds the supported range"
	default:
		return "invalid value"
	}
}
