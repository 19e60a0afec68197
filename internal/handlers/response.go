package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/k-code-yt/go-order-placement/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("HTTP:ENCODE_FAILED")
	}
}

func statusFor(code int) int {
	switch code {
	case pkgerrors.CodeInvalidCustomer, pkgerrors.CodeProductsNotFound, pkgerrors.CodeOrderNotFound:
		return http.StatusNotFound
	case pkgerrors.CodeInsufficientStock, pkgerrors.CodeProductAlreadyExists, pkgerrors.CodeDuplicateKey:
		return http.StatusConflict
	case pkgerrors.CodeInvalidQuantity, pkgerrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case pkgerrors.CodeJSONParsing:
		return http.StatusBadRequest
	case pkgerrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders domain errors with their own message; anything else is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *pkgerrors.AppError
	if !errors.As(err, &appErr) {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("HTTP:INTERNAL_ERROR")
		writeJSON(w, http.StatusInternalServerError, &ErrorResponse{
			Code:    pkgerrors.CodeUnknown,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(appErr.Code)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("HTTP:INTERNAL_ERROR")
	}
	writeJSON(w, status, &ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return pkgerrors.NewJSONParsingError(err)
	}
	return nil
}
