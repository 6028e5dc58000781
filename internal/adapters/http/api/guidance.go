package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/pkg/logger"
)

const maxGuidanceBody = 64 << 10

// GuidanceDependencies defines what POST /guidance needs.
type GuidanceDependencies interface {
	Guide(ctx context.Context, req model.Request) (model.Result, error)
}

// GuidanceHandler handles guidance requests.
type GuidanceHandler struct {
	deps GuidanceDependencies
}

// NewGuidanceHandler creates a new guidance handler.
func NewGuidanceHandler(deps GuidanceDependencies) *GuidanceHandler {
	return &GuidanceHandler{deps: deps}
}

// guidanceRequest mirrors the OpenAPI schema for POST /guidance.
type guidanceRequest struct {
	Text          string `json:"text"`
	Mood          string `json:"mood"`
	DaysUntilExam int    `json:"days_until_exam"`
}

// HandlePostGuidance handles POST /guidance requests.
func (h *GuidanceHandler) HandlePostGuidance(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_guidance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req guidanceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGuidanceBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Guide(r.Context(), model.Request{
		Text:          req.Text,
		Mood:          req.Mood,
		DaysUntilExam: req.DaysUntilExam,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, service.ErrEmptyInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "empty_input", Message: EmptyInputMessage})
	case errors.Is(err, service.ErrInvalidDays):
		writeError(w, http.StatusBadRequest, "invalid_days", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrClassifier):
		logger.Get().Error(r.Context(), "guidance failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusBadGateway, "classifier_unavailable", NewKind(op, ErrUpstream))
	default:
		logger.Get().Error(r.Context(), "guidance failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
