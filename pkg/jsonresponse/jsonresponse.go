package jsonresponse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/sector_dashboard/utils"
)

// AppError pairs an HTTP status with a user-facing message while keeping the
// underlying error for logs only.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func WrapError(err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WriteResponse sends a JSON response with the given status code and data.
// Optional headers can be provided to set additional response headers.
func WriteResponse(w http.ResponseWriter, statusCode int, data any, headers ...map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header().Set(key, value)
		}
	}

	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("err", err.Error()))
	}
}

// WriteError renders err as a JSON error body. Client errors go to the log at
// warn level, server errors at error level. Errors that are not an *AppError
// become a generic 500.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = WrapError(err, "internal server error", http.StatusInternalServerError)
	}

	logErr := appErr.Err
	if logErr == nil {
		logErr = appErr
	}

	if appErr.Code >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("rqID", rqID), slog.String("err", logErr.Error()), slog.String("message", appErr.Message))
	} else {
		slog.Warn("request rejected", slog.String("rqID", rqID), slog.String("err", logErr.Error()), slog.String("message", appErr.Message))
	}

	WriteResponse(w, appErr.Code, map[string]string{"error": appErr.Message})
}
