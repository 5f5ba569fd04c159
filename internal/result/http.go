package result

import (
	"encoding/json"
	"net/http"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const internalMessage = "Something went wrong, please try again"

// Write encodes v as the JSON response body.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as a failed result. Faults are logged and
// answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	res, fault := FromError[struct{}](err)
	if fault != nil {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(fault),
		)
		Write(w, http.StatusInternalServerError, Fail[struct{}]("", internalMessage))
		return
	}
	Write(w, apperr.HTTPStatus(err), res)
}
