package worksheets

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/worksheet-gen/backend/internal/models"
)

var validate = validator.New()

type Handler struct {
	service *Service
	drafts  *DraftStore
}

func NewHandler(service *Service, drafts *DraftStore) *Handler {
	return &Handler{service: service, drafts: drafts}
}

// RegisterRoutes mounts the public worksheet and draft routes on api.
func (h *Handler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/worksheets/generate", h.Generate).Methods("POST")
	api.HandleFunc("/worksheets/variants", h.Variants).Methods("POST")
	api.HandleFunc("/tiers", h.ListTiers).Methods("GET")

	api.HandleFunc("/drafts", h.CreateDraft).Methods("POST")
	api.HandleFunc("/drafts/{id}", h.GetDraft).Methods("GET")
	api.HandleFunc("/drafts/{id}", h.UpdateDraft).Methods("PATCH")
	api.HandleFunc("/drafts/{id}/regenerate", h.RegenerateDraft).Methods("POST")
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Generate(r.Context(), req.Settings, req.Seed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Variants(w http.ResponseWriter, r *http.Request) {
	var req models.VariantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.GenerateVariants(r.Context(), req.Settings, req.Count, req.Seed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Tiers())
}

// CreateDraft starts a draft. An empty body starts from the default settings.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var settings *models.Settings
	var req models.Settings
	err := json.NewDecoder(r.Body).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	default:
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		settings = &req
	}

	d, err := h.drafts.Create(settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d.Snapshot())
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req models.DraftUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.drafts.Update(mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RegenerateDraft(w http.ResponseWriter, r *http.Request) {
	resp, err := h.drafts.Regenerate(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDraftNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Draft not found"})
	case errors.Is(err, ErrLastOperation),
		errors.Is(err, ErrUnknownDifficulty),
		errors.Is(err, ErrInvalidTheme),
		errors.Is(err, ErrInvalidCount),
		errors.Is(err, ErrUnknownOp):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("worksheet request failed", "component", "worksheets", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
