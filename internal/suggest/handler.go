package suggest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/worksheet-gen/backend/internal/models"
)

var validate = validator.New()

type Handler struct {
	suggester *Suggester
}

func NewHandler(s *Suggester) *Handler {
	return &Handler{suggester: s}
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Theme == "" {
		req.Theme = models.ThemeDefault
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.suggester.Suggest(r.Context(), req)
	switch {
	case errors.Is(err, ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Error: "Too many suggestion requests, try again shortly"})
		return
	case errors.Is(err, ErrUnknownTier):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		slog.Error("suggest failed", "component", "suggest", "error", err)
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Failed to generate suggestions"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
