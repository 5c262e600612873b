// Package templates stores named worksheet settings so teachers can reuse,
// share and rate them.
package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/worksheet-gen/backend/internal/models"
)

var (
	ErrForbidden     = errors.New("template belongs to another user")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// minSimilarity is how close a search query must be to a template name, or
// to one of its words, for the template to match.
const minSimilarity = 0.6

var folder = cases.Fold()

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns templates newest first. A non-empty query keeps only names
// that contain it or are within edit distance of it, best matches first.
func (s *Service) List(ctx context.Context, query string) ([]models.Template, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	type scored struct {
		t     models.Template
		score float64
	}
	var hits []scored
	for _, t := range all {
		if score := matchScore(query, t.Name); score >= minSimilarity {
			hits = append(hits, scored{t, score})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := make([]models.Template, len(hits))
	for i, h := range hits {
		out[i] = h.t
	}
	return out, nil
}

func matchScore(query, name string) float64 {
	q, n := folder.String(query), folder.String(name)
	if strings.Contains(n, q) {
		return 1
	}
	best := similarity(q, n)
	for _, word := range strings.Fields(n) {
		best = max(best, similarity(q, word))
	}
	return best
}

func similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Template, error) {
	return s.repo.Get(ctx, id)
}

// Save creates a template, or updates the one that already has this name.
// An update replaces settings and visibility, and metadata when given.
func (s *Service) Save(ctx context.Context, req models.SaveTemplateRequest, owner int64) (*models.Template, bool, error) {
	existing, err := s.repo.GetByName(ctx, req.Name)
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		t := newTemplate(req, owner)
		err := s.repo.Create(ctx, t)
		if errors.Is(err, ErrNameTaken) {
			// Lost a race with a concurrent save of the same name.
			return s.Save(ctx, req, owner)
		}
		if err != nil {
			return nil, false, err
		}
		slog.Info("template created", "component", "templates", "id", t.ID, "name", t.Name)
		return t, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("save template: %w", err)
	}

	if !ownedBy(existing, owner) {
		return nil, false, ErrForbidden
	}
	existing.Settings = *req.Settings
	existing.IsPublic = req.IsPublic
	if req.Metadata != nil {
		existing.Metadata = normalizeMetadata(*req.Metadata)
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func newTemplate(req models.SaveTemplateRequest, owner int64) *models.Template {
	meta := models.TemplateMetadata{}
	if req.Metadata != nil {
		meta = *req.Metadata
	}
	return &models.Template{
		Name:     req.Name,
		Settings: *req.Settings,
		OwnerID:  &owner,
		IsPublic: req.IsPublic,
		Metadata: normalizeMetadata(meta),
	}
}

func normalizeMetadata(m models.TemplateMetadata) models.TemplateMetadata {
	if m.Subject == "" {
		m.Subject = models.DefaultSubject
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

// Update patches the fields present in req.
func (s *Service) Update(ctx context.Context, id int64, req models.UpdateTemplateRequest, owner int64) (*models.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(t, owner) {
		return nil, ErrForbidden
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Settings != nil {
		t.Settings = *req.Settings
	}
	if req.IsPublic != nil {
		t.IsPublic = *req.IsPublic
	}
	if req.Metadata != nil {
		t.Metadata = normalizeMetadata(*req.Metadata)
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int64, owner int64) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ownedBy(t, owner) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Use records that the template was loaded into a worksheet.
func (s *Service) Use(ctx context.Context, id int64) (*models.Template, error) {
	return s.repo.RecordUse(ctx, id, s.now().UTC())
}

func (s *Service) Rate(ctx context.Context, id int64, rating int) (*models.Template, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	return s.repo.AddRating(ctx, id, rating)
}

// Templates saved before ownership existed have no owner and anyone
// signed in may change them.
func ownedBy(t *models.Template, user int64) bool {
	return t.OwnerID == nil || *t.OwnerID == user
}
