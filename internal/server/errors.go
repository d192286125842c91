package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/metrobox/forestry-pots/internal/catalog/domain"
	downloaddomain "github.com/metrobox/forestry-pots/internal/download/domain"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	refdatadomain "github.com/metrobox/forestry-pots/internal/refdata/domain"
	rfpdomain "github.com/metrobox/forestry-pots/internal/rfp/domain"
	"github.com/metrobox/forestry-pots/internal/watermark"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not_found")
	ErrTooManyRequests = errors.New("too_many_requests")
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Message }

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError maps a service error onto an HTTP response. Unrecognized
// errors become an opaque 500 so internals never leak to clients.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		abort(c, apiErr)
		return
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidToken):
		abort(c, &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"})
	case errors.Is(err, identitydomain.ErrInvalidCredentials):
		abort(c, &APIError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "invalid email or password"})
	case errors.Is(err, ErrForbidden):
		abort(c, &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "insufficient permissions"})
	case errors.Is(err, ErrTooManyRequests):
		abort(c, &APIError{Status: http.StatusTooManyRequests, Code: "too_many_requests", Message: "too many attempts, retry later"})

	case errors.Is(err, downloaddomain.ErrProductNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "product_not_found", Message: "product not found"})
	case errors.Is(err, downloaddomain.ErrFileNotAvailable):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "file_not_available", Message: "product has no file of this type"})
	case errors.Is(err, downloaddomain.ErrFileNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "file_not_found", Message: "file missing from storage"})
	case errors.Is(err, downloaddomain.ErrInvalidFileType):
		abort(c, &APIError{Status: http.StatusBadRequest, Code: "invalid_file_type", Message: "file type must be pdf, image or dwg"})
	case errors.Is(err, downloaddomain.ErrWatermarkNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "watermark_not_found", Message: "watermark record not found"})

	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, rfpdomain.ErrNotFound),
		errors.Is(err, refdatadomain.ErrNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"})

	case errors.Is(err, identitydomain.ErrEmailTaken):
		abort(c, &APIError{Status: http.StatusConflict, Code: "email_taken", Message: "email already registered"})
	case errors.Is(err, identitydomain.ErrRequestNotPending):
		abort(c, &APIError{Status: http.StatusConflict, Code: "request_not_pending", Message: "access request already handled"})
	case errors.Is(err, refdatadomain.ErrDuplicate):
		abort(c, &APIError{Status: http.StatusConflict, Code: "duplicate_value", Message: "value already exists"})

	case errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidVariations),
		errors.Is(err, identitydomain.ErrInvalidName),
		errors.Is(err, identitydomain.ErrInvalidCompany),
		errors.Is(err, identitydomain.ErrInvalidEmail),
		errors.Is(err, identitydomain.ErrInvalidPassword),
		errors.Is(err, identitydomain.ErrInvalidRole),
		errors.Is(err, identitydomain.ErrInvalidAccessReq),
		errors.Is(err, rfpdomain.ErrInvalidStatus),
		errors.Is(err, rfpdomain.ErrNoItems),
		errors.Is(err, rfpdomain.ErrUnknownProduct),
		errors.Is(err, rfpdomain.ErrInvalidID),
		errors.Is(err, refdatadomain.ErrInvalidKind),
		errors.Is(err, refdatadomain.ErrInvalidValue):
		abort(c, &APIError{Status: http.StatusBadRequest, Code: err.Error(), Message: "invalid request"})

	case errors.Is(err, rfpdomain.ErrNotOwner):
		abort(c, &APIError{Status: http.StatusForbidden, Code: "not_owner", Message: "insufficient permissions"})

	case errors.Is(err, watermark.ErrRender):
		abort(c, &APIError{Status: http.StatusInternalServerError, Code: "render_failed", Message: "could not prepare the file"})

	default:
		abort(c, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"})
	}
}

func abort(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
