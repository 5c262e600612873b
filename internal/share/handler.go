package share

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/worksheet-gen/backend/internal/models"
	"github.com/worksheet-gen/backend/internal/render"
)

// StudentProblem is a problem as the student sees it. The answer is only
// present on a teacher's copy.
type StudentProblem struct {
	Number        int              `json:"number"`
	FirstOperand  int              `json:"first_operand"`
	SecondOperand int              `json:"second_operand"`
	Operation     models.Operation `json:"operation"`
	Symbol        string           `json:"symbol"`
	Answer        *int             `json:"answer,omitempty"`
}

type StudentWorksheet struct {
	Title       string           `json:"title"`
	Theme       models.Theme     `json:"theme"`
	TeacherCopy bool             `json:"teacher_copy"`
	Problems    []StudentProblem `json:"problems"`
	Grid        []render.Cell    `json:"grid"`
}

// StudentView turns a decoded payload into the student's worksheet.
func StudentView(p Payload, cipher models.CipherMap) StudentWorksheet {
	out := StudentWorksheet{
		Title:       p.Settings.Title,
		Theme:       p.Settings.Theme,
		TeacherCopy: p.Settings.IncludeCodeBreaker,
		Problems:    make([]StudentProblem, len(p.Problems)),
		Grid:        render.BuildGrid(p.Settings, cipher),
	}
	if out.Theme == "" {
		out.Theme = models.ThemeDefault
	}
	for i, prob := range p.Problems {
		sp := StudentProblem{
			Number:        i + 1,
			FirstOperand:  prob.FirstOperand,
			SecondOperand: prob.SecondOperand,
			Operation:     prob.Operation,
			Symbol:        prob.Operation.Symbol(),
		}
		if out.TeacherCopy {
			answer := prob.Answer
			sp.Answer = &answer
		}
		out.Problems[i] = sp
	}
	return out
}

type Handler struct {
	baseURL string
}

func NewHandler(publicBaseURL string) *Handler {
	return &Handler{baseURL: publicBaseURL}
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if _, err := CipherFromProblems(req.Problems); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token, err := Encode(Payload{Settings: req.Settings, Problems: req.Problems})
	if err != nil {
		slog.Error("encode share link failed", "component", "share", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create link"})
		return
	}

	writeJSON(w, http.StatusOK, models.ShareResponse{Token: token, URL: URL(h.baseURL, token)})
}

func (h *Handler) Student(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("data")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No worksheet data provided"})
		return
	}

	payload, cipher, err := Decode(token)
	if errors.Is(err, ErrInvalidLink) {
		slog.Debug("rejected student link", "component", "share", "error", err)
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid worksheet link"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, StudentView(payload, cipher))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
