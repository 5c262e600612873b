package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/worksheet-gen/backend/internal/models"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrNameTaken        = errors.New("template name already in use")
)

// Repository is the persistence the template service needs.
type Repository interface {
	List(ctx context.Context) ([]models.Template, error)
	Get(ctx context.Context, id int64) (*models.Template, error)
	GetByName(ctx context.Context, name string) (*models.Template, error)
	Create(ctx context.Context, t *models.Template) error
	Update(ctx context.Context, t *models.Template) error
	Delete(ctx context.Context, id int64) error
	RecordUse(ctx context.Context, id int64, at time.Time) (*models.Template, error)
	AddRating(ctx context.Context, id int64, rating int) (*models.Template, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectCols = `id, name, settings, created_by, owner_id, is_public,
	grade_level, subject, tags, times_used, last_used, ratings, average_rating,
	created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*models.Template, error) {
	var t models.Template
	var ratings pq.Int64Array
	err := row.Scan(&t.ID, &t.Name, &t.Settings, &t.CreatedBy, &t.OwnerID, &t.IsPublic,
		&t.Metadata.GradeLevel, &t.Metadata.Subject, pq.Array(&t.Metadata.Tags),
		&t.UsageStats.TimesUsed, &t.UsageStats.LastUsed, &ratings, &t.UsageStats.AverageRating,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.UsageStats.Ratings = make([]int, len(ratings))
	for i, r := range ratings {
		t.UsageStats.Ratings[i] = int(r)
	}
	if t.Metadata.Tags == nil {
		t.Metadata.Tags = []string{}
	}
	return &t, nil
}

func (s *Store) List(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM templates ORDER BY created_at DESC, id DESC`, selectCols))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Template, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetByName(ctx context.Context, name string) (*models.Template, error) {
	return s.getOne(ctx, `WHERE name = $1`, name)
}

func (s *Store) getOne(ctx context.Context, where string, arg any) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM templates %s`, selectCols, where), arg)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// Create inserts t and fills in its generated columns. created_by is the
// owner's username when the owner exists, "anonymous" otherwise.
func (s *Store) Create(ctx context.Context, t *models.Template) error {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`INSERT INTO templates (name, settings, created_by, owner_id, is_public, grade_level, subject, tags)
		 VALUES ($1, $2, COALESCE((SELECT username FROM users WHERE id = $3), $4), $3, $5, $6, $7, $8)
		 RETURNING %s`, selectCols),
		t.Name, t.Settings, t.OwnerID, models.AnonymousCreator, t.IsPublic,
		t.Metadata.GradeLevel, t.Metadata.Subject, pq.Array(t.Metadata.Tags),
	)
	created, err := scanTemplate(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("create template: %w", err)
	}
	*t = *created
	return nil
}

func (s *Store) Update(ctx context.Context, t *models.Template) error {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE templates
		 SET name = $1, settings = $2, is_public = $3, grade_level = $4, subject = $5, tags = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING %s`, selectCols),
		t.Name, t.Settings, t.IsPublic, t.Metadata.GradeLevel, t.Metadata.Subject,
		pq.Array(t.Metadata.Tags), t.ID,
	)
	updated, err := scanTemplate(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrTemplateNotFound
	case isUniqueViolation(err):
		return ErrNameTaken
	case err != nil:
		return fmt.Errorf("update template: %w", err)
	}
	*t = *updated
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *Store) RecordUse(ctx context.Context, id int64, at time.Time) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE templates SET times_used = times_used + 1, last_used = $1
		 WHERE id = $2 RETURNING %s`, selectCols),
		at, id,
	)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record template use: %w", err)
	}
	return t, nil
}

// AddRating appends rating and recomputes the average in one statement.
func (s *Store) AddRating(ctx context.Context, id int64, rating int) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE templates
		 SET ratings = array_append(ratings, $1::int),
		     average_rating = (SELECT AVG(r) FROM unnest(array_append(ratings, $1::int)) AS r)
		 WHERE id = $2 RETURNING %s`, selectCols),
		rating, id,
	)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rate template: %w", err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
