package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrInvalidPhone, http.StatusBadRequest},
	{domain.ErrRoleRequired, http.StatusBadRequest},
	{domain.ErrUnsupportedFileType, http.StatusBadRequest},
	{domain.ErrTooManyPhotos, http.StatusBadRequest},
	{domain.ErrKYCNoDocument, http.StatusBadRequest},

	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrInvalidCode, http.StatusUnauthorized},
	{domain.ErrCodeExpired, http.StatusUnauthorized},

	{domain.ErrPaymentFailed, http.StatusPaymentRequired},

	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotRider, http.StatusForbidden},
	{domain.ErrNotSeeker, http.StatusForbidden},
	{domain.ErrKYCNotVerified, http.StatusForbidden},
	{domain.ErrKYCNotApplicable, http.StatusForbidden},
	{domain.ErrCannotSwipeOwnRide, http.StatusForbidden},

	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrProfileNotFound, http.StatusNotFound},
	{domain.ErrRideNotFound, http.StatusNotFound},
	{domain.ErrSwipeNotFound, http.StatusNotFound},
	{domain.ErrMatchNotFound, http.StatusNotFound},
	{domain.ErrRatingNotFound, http.StatusNotFound},
	{domain.ErrPaymentNotFound, http.StatusNotFound},
	{domain.ErrPhotoNotFound, http.StatusNotFound},

	{domain.ErrUserAlreadyExists, http.StatusConflict},
	{domain.ErrProfileAlreadyExists, http.StatusConflict},
	{domain.ErrKYCAlreadyVerified, http.StatusConflict},
	{domain.ErrCannotCancel, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrRideNotAvailable, http.StatusConflict},
	{domain.ErrRideAlreadyMatched, http.StatusConflict},
	{domain.ErrMatchNotPending, http.StatusConflict},
	{domain.ErrMatchNotActive, http.StatusConflict},
	{domain.ErrMatchNotCompleted, http.StatusConflict},
	{domain.ErrAlreadyPaid, http.StatusConflict},
	{domain.ErrPaymentWaived, http.StatusConflict},
	{domain.ErrPaymentPending, http.StatusConflict},

	{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
	{domain.ErrPaymentUnavailable, http.StatusServiceUnavailable},
}

// StatusFor maps a usecase error to its HTTP status.
func StatusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Unmapped errors are logged
// and reported as fallback so internals never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log := logger.FromContext(c.Request.Context(), zerolog.Nop())
		log.Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
		c.JSON(status, ErrorResponse{Error: fallback})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// pathID returns the uuid path parameter name. An id that is not a uuid
// names no record and is answered with notFound.
func pathID(c *gin.Context, name string, notFound error) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, notFound, "")
		return "", false
	}
	return id, true
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := c.Get(middleware.ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return "", false
	}
	return userID.(string), true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// readUpload reads the multipart file in field. It reads at most limit+1
// bytes so the usecase can reject oversized files without buffering them.
// The content type is sniffed from the data, falling back to the part
// header for formats the sniffer does not know.
func readUpload(c *gin.Context, field string, limit int64) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("%w: multipart field %q is required", domain.ErrInvalidInput, field)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, limit+1)); err != nil {
		return "", nil, err
	}
	data := buf.Bytes()

	contentType := http.DetectContentType(data)
	if contentType == "application/octet-stream" {
		if h := fh.Header.Get("Content-Type"); h != "" {
			contentType = h
		}
	}
	return contentType, data, nil
}
