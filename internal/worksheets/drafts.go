package worksheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrLastOperation = errors.New("at least one operation must stay enabled")
	ErrInvalidTheme  = errors.New("unknown theme")
	ErrInvalidCount  = errors.New("problem count must be between 1 and 200")
	ErrUnknownOp     = errors.New("unknown operation")
)

const maxProblems = 200

// Draft is a worksheet being authored. Every setter feeds the dependency
// tracker, and the problems are regenerated exactly when the settings the
// generator reads have changed.
type Draft struct {
	ID string

	mu          sync.Mutex
	svc         *Service
	settings    models.Settings
	set         models.ProblemSet
	tracker     generator.Tracker
	generation  int
	regenerated bool
	changed     []string
	touched     time.Time
	now         func() time.Time
}

func newDraft(svc *Service, settings models.Settings, now func() time.Time) (*Draft, error) {
	if _, ok := generator.LookupTier(settings.Difficulty); !ok {
		return nil, fmt.Errorf("%q: %w", settings.Difficulty, ErrUnknownDifficulty)
	}
	if settings.Operations.Empty() {
		settings.Operations.Addition = true
	}
	d := &Draft{ID: uuid.NewString(), svc: svc, settings: settings, now: now}
	if err := d.sync(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Draft) SetTitle(title string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings.Title = title
	return d.syncLogged()
}

func (d *Draft) SetTheme(theme models.Theme) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setTheme(theme); err != nil {
		return false, err
	}
	return d.syncLogged(), nil
}

func (d *Draft) SetDifficulty(difficulty models.Difficulty) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setDifficulty(difficulty); err != nil {
		return false, err
	}
	return d.syncLogged(), nil
}

// SetOperation switches op on or off. Switching off the last enabled
// operation is refused with ErrLastOperation.
func (d *Draft) SetOperation(op models.Operation, enabled bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setOperation(op, enabled); err != nil {
		return false, err
	}
	return d.syncLogged(), nil
}

func (d *Draft) SetSecretMessage(message string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings.SecretMessage = message
	return d.syncLogged()
}

func (d *Draft) SetProblemCount(n int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setProblemCount(n); err != nil {
		return false, err
	}
	return d.syncLogged(), nil
}

func (d *Draft) SetMaxNumber(n int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings.MaxNumber = n
	return d.syncLogged()
}

func (d *Draft) SetIncludeCodeBreaker(on bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings.IncludeCodeBreaker = on
	return d.syncLogged()
}

func (d *Draft) SetPrefilledWords(words []string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings.PrefilledWords = slices.Clone(words)
	return d.syncLogged()
}

// Regenerate draws new problems for unchanged settings.
func (d *Draft) Regenerate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regenerate()
}

// Apply runs every setter named in req as one change. Operations are
// switched on before any are switched off, so swapping the only enabled
// operation for another is allowed. On error the draft is left untouched.
func (d *Draft) Apply(req models.DraftUpdateRequest) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	before := d.settings
	before.PrefilledWords = slices.Clone(d.settings.PrefilledWords)
	if err := d.apply(req); err != nil {
		d.settings = before
		return false, err
	}
	changed, err := d.syncChanged()
	if err != nil {
		d.settings = before
		return false, err
	}
	return changed, nil
}

func (d *Draft) apply(req models.DraftUpdateRequest) error {
	if req.Title != nil {
		d.settings.Title = *req.Title
	}
	if req.Theme != nil {
		if err := d.setTheme(*req.Theme); err != nil {
			return err
		}
	}
	if req.Difficulty != nil {
		if err := d.setDifficulty(*req.Difficulty); err != nil {
			return err
		}
	}
	if req.SecretMessage != nil {
		d.settings.SecretMessage = *req.SecretMessage
	}
	if req.NumberOfProblems != nil {
		if err := d.setProblemCount(*req.NumberOfProblems); err != nil {
			return err
		}
	}
	if req.MaxNumber != nil {
		d.settings.MaxNumber = *req.MaxNumber
	}
	if req.IncludeCodeBreaker != nil {
		d.settings.IncludeCodeBreaker = *req.IncludeCodeBreaker
	}
	if req.PrefilledWords != nil {
		d.settings.PrefilledWords = slices.Clone(req.PrefilledWords)
	}

	for op, enabled := range req.Operations {
		if !op.Valid() {
			return fmt.Errorf("%q: %w", op, ErrUnknownOp)
		}
		if enabled {
			d.settings.Operations = d.settings.Operations.With(op, true)
		}
	}
	for _, op := range models.AllOperations {
		if enabled, ok := req.Operations[op]; ok && !enabled {
			if err := d.setOperation(op, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Snapshot returns the draft as the API shows it.
func (d *Draft) Snapshot() models.DraftResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	settings := d.settings
	settings.PrefilledWords = slices.Clone(d.settings.PrefilledWords)
	return models.DraftResponse{
		ID:          d.ID,
		Settings:    settings,
		Problems:    slices.Clone(d.set.Problems),
		Cipher:      d.set.Cipher,
		Warnings:    d.set.Report.Warnings(),
		Generation:  d.generation,
		Regenerated: d.regenerated,
		Changed:     slices.Clone(d.changed),
	}
}

func (d *Draft) setTheme(theme models.Theme) error {
	if !models.ValidThemes[theme] {
		return fmt.Errorf("%q: %w", theme, ErrInvalidTheme)
	}
	d.settings.Theme = theme
	return nil
}

func (d *Draft) setDifficulty(difficulty models.Difficulty) error {
	if _, ok := generator.LookupTier(difficulty); !ok {
		return fmt.Errorf("%q: %w", difficulty, ErrUnknownDifficulty)
	}
	d.settings.Difficulty = difficulty
	return nil
}

func (d *Draft) setOperation(op models.Operation, enabled bool) error {
	if !op.Valid() {
		return fmt.Errorf("%q: %w", op, ErrUnknownOp)
	}
	next := d.settings.Operations.With(op, enabled)
	if next.Empty() {
		return ErrLastOperation
	}
	d.settings.Operations = next
	return nil
}

func (d *Draft) setProblemCount(n int) error {
	if n < 1 || n > maxProblems {
		return ErrInvalidCount
	}
	d.settings.NumberOfProblems = n
	return nil
}

// sync regenerates when the dependency projection moved.
func (d *Draft) sync() error {
	_, err := d.syncChanged()
	return err
}

func (d *Draft) syncChanged() (bool, error) {
	d.touched = d.now()
	if !d.tracker.Observe(generator.DependenciesOf(d.settings)) {
		d.regenerated = false
		d.changed = nil
		return false, nil
	}
	if err := d.regenerate(); err != nil {
		d.tracker.Reset()
		return false, err
	}
	d.changed = d.tracker.Changed()
	slog.Debug("draft regenerated", "component", "drafts", "draft", d.ID, "generation", d.generation, "changed", d.changed)
	return true, nil
}

// syncLogged is sync for setters whose input cannot make generation fail.
func (d *Draft) syncLogged() bool {
	changed, err := d.syncChanged()
	if err != nil {
		slog.Error("draft regeneration failed", "component", "drafts", "draft", d.ID, "error", err)
	}
	return changed
}

func (d *Draft) regenerate() error {
	set, err := d.svc.run(context.Background(), d.settings, d.svc.seeds(), "draft")
	if err != nil {
		return fmt.Errorf("regenerate draft: %w", err)
	}
	d.set = set
	d.generation++
	d.regenerated = true
	d.changed = nil
	d.touched = d.now()
	return nil
}

func (d *Draft) touch() {
	d.mu.Lock()
	d.touched = d.now()
	d.mu.Unlock()
}

func (d *Draft) lastTouched() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touched
}

// DraftStore keeps drafts in memory until they sit idle past the TTL.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	svc    *Service
	ttl    time.Duration
	now    func() time.Time
}

func NewDraftStore(svc *Service, ttl time.Duration) *DraftStore {
	return &DraftStore{
		drafts: map[string]*Draft{},
		svc:    svc,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create starts a draft from settings, or from the defaults when nil.
func (s *DraftStore) Create(settings *models.Settings) (*Draft, error) {
	base := models.DefaultSettings()
	if settings != nil {
		base = *settings
	}
	d, err := newDraft(s.svc, base, s.now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d, nil
}

func (s *DraftStore) Get(id string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if s.expired(d) {
		delete(s.drafts, id)
		return nil, ErrDraftNotFound
	}
	d.touch()
	return d, nil
}

// Update applies req to the draft with the given id.
func (s *DraftStore) Update(id string, req models.DraftUpdateRequest) (models.DraftResponse, error) {
	d, err := s.Get(id)
	if err != nil {
		return models.DraftResponse{}, err
	}
	if _, err := d.Apply(req); err != nil {
		return models.DraftResponse{}, err
	}
	return d.Snapshot(), nil
}

func (s *DraftStore) Regenerate(id string) (models.DraftResponse, error) {
	d, err := s.Get(id)
	if err != nil {
		return models.DraftResponse{}, err
	}
	if err := d.Regenerate(); err != nil {
		return models.DraftResponse{}, err
	}
	return d.Snapshot(), nil
}

// Sweep drops expired drafts and reports how many went.
func (s *DraftStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.drafts {
		if s.expired(d) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *DraftStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired drafts removed", "component", "drafts", "count", n)
			}
		}
	}
}

func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

func (s *DraftStore) expired(d *Draft) bool {
	return s.ttl > 0 && s.now().Sub(d.lastTouched()) > s.ttl
}
