package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shresth2708/edu-api/pkg/apperr"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
}

// Success writes a success envelope and returns it (middlewares use the
// returned value with AbortWithStatusJSON).
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and returns it.
func Error[T any](ctx *gin.Context, status int, message string, errs interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Errors:    errs,
	}
	ctx.JSON(status, resp)
	return resp
}

// HandleError is the centralized error responder. Operational errors
// (*apperr.Error) are returned with their status and safe message; anything
// else is logged in full and answered with a generic 500.
func HandleError(ctx *gin.Context, logger *logrus.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"method": ctx.Request.Method,
				"path":   ctx.FullPath(),
				"status": ae.Status,
				"ip":     clientIP(ctx),
			}).Warn(ae.Message)
		}
		Error[any](ctx, ae.Status, ae.Message, ae.Details)
		return
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{
			"method": ctx.Request.Method,
			"path":   ctx.FullPath(),
			"ip":     clientIP(ctx),
		}).WithError(err).Error("unhandled error")
	}
	Error[any](ctx, http.StatusInternalServerError, "something went wrong", nil)
}

func clientIP(ctx *gin.Context) string {
	if ip := ctx.GetString("real_ip"); ip != "" {
		return ip
	}
	return ctx.ClientIP()
}
