package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

const maxBodyBytes = 16 << 10

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTotalMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bind decodes the JSON body into req and validates it. On failure the
// request is aborted with 400 and false is returned.
func (h *Handler) bind(c *gin.Context, req any) bool {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if c.Request.ContentLength > maxBodyBytes {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return false
	}
	limitBody(c)
	if err := c.ShouldBindJSON(req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return false
	}
	return true
}

// limitBody caps the request body at maxBodyBytes, including chunked bodies
// that carry no Content-Length.
func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
}

func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) || len(vErrs) == 0 {
		return http.StatusText(http.StatusBadRequest)
	}
	vErr := vErrs[0]
	switch vErr.Tag() {
	case "required":
		return vErr.Field() + " value missing"
	case "gt", "min":
		return vErr.Field() + " value is less than " + vErr.Param()
	case "lte", "max":
		return vErr.Field() + " value is more than " + vErr.Param()
	case "oneof":
		return vErr.Field() + " must be one of: " + vErr.Param()
	case "email":
		return vErr.Field() + " is not a valid email"
	default:
		return http.StatusText(http.StatusBadRequest)
	}
}

// productRef is a product id sent either as a JSON number or a numeric string.
type productRef int64

func (p *productRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", b)
	}
	*p = productRef(id)
	return nil
}
