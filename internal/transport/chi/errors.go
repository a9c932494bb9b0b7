package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/domain"
	"github.com/promptsgo/promptsgo/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers maps domain sentinels to responses. Order matters: first match wins.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		revisionConflictHandler,
		sentinelHandler(domain.ErrPromptNotFound, http.StatusNotFound, ErrorResponseCodePromptNotFound),
		sentinelHandler(domain.ErrSlugTaken, http.StatusConflict, ErrorResponseCodeSlugTaken),
		detailHandler(domain.ErrInvalidPrompt, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		detailHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		detailHandler(domain.ErrMissingVariables, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		detailHandler(domain.ErrUnsupportedModel, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, ErrorResponseCodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorResponseCodeForbidden),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, ErrorResponseCodeQuotaExceeded),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, ErrorResponseCodeProviderError),
		sentinelHandler(domain.ErrPlaygroundDisabled,
			http.StatusServiceUnavailable, ErrorResponseCodePlaygroundDisabled),
	}
}

// sentinelHandler answers with the sentinel's own message and hides wrapped internals.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// detailHandler answers with the full validation message.
func detailHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and the current revision.
func revisionConflictHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	resp := ErrorResponse{Code: ErrorResponseCodeRevisionConflict, Message: domain.ErrRevisionConflict.Error()}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		w.Header().Set("ETag", etag(rce.CurrentRevision))
		resp.CurrentRevision = &rce.CurrentRevision
	}
	writeJSON(w, http.StatusConflict, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func etag(revision int) string {
	return strconv.Quote(strconv.Itoa(revision))
}
