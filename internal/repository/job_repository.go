package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
)

// ErrJobNotFound возвращается, когда вакансия не найдена.
var ErrJobNotFound = errors.New("job not found")

// JobRepository хранит агрегат вакансии одним JSONB-документом.
// Отклики живут только внутри документа, поэтому список откликов
// читается и пишется атомарно вместе с вакансией.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository создаёт новый экземпляр.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

type jobRow struct {
	ID         uuid.UUID `db:"id"`
	EmployerID uuid.UUID `db:"employer_id"`
	Status     string    `db:"status"`
	IsActive   bool      `db:"is_active"`
	Doc        []byte    `db:"doc"`
	Version    int64     `db:"version"`
}

func (row *jobRow) toJob() (*models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(row.Doc, &job); err != nil {
		return nil, fmt.Errorf("job repository: unmarshal doc %w", err)
	}
	job.ID = row.ID
	job.EmployerID = row.EmployerID
	job.Status = row.Status
	job.IsActive = row.IsActive
	job.Version = row.Version
	return &job, nil
}

func rowsToJobs(rows []jobRow) ([]models.Job, error) {
	jobs := make([]models.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// Create сохраняет новую вакансию.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("job repository: marshal doc %w", err)
	}

	query := `
		INSERT INTO jobs (id, employer_id, status, is_active, skills, doc, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.EmployerID, job.Status, job.IsActive,
		pq.StringArray(job.SkillNames()), doc, job.CreatedAt,
	); err != nil {
		return fmt.Errorf("job repository: insert %w", err)
	}
	job.Version = 1
	return nil
}

// GetByID возвращает вакансию по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var row jobRow
	query := `SELECT id, employer_id, status, is_active, doc, version FROM jobs WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return row.toJob()
}

// Update перезаписывает документ вакансии с проверкой версии.
// Две гонки на одном агрегате разрешаются повторным чтением в сервисе.
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	doc, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("job repository: marshal doc %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $2, is_active = $3, skills = $4, doc = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.IsActive, pq.StringArray(job.SkillNames()), doc, job.Version,
	)
	if err != nil {
		return fmt.Errorf("job repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	job.Version++
	return nil
}

// Delete мягко деактивирует вакансию.
func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("job repository: delete %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// IncrementViews увеличивает счётчик просмотров.
// Счётчик не участвует в версионировании: гонка просмотров безвредна.
func (r *JobRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET doc = jsonb_set(doc, '{views}', to_jsonb(COALESCE((doc->>'views')::int, 0) + 1), true),
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// JobListFilter параметры выборки вакансий.
type JobListFilter struct {
	Status     string
	EmployerID *uuid.UUID
	WorkerID   *uuid.UUID
	Skills     []string
	MinBudget  *float64
	MaxBudget  *float64
	Limit      int
	Offset     int
}

// List возвращает активные вакансии по фильтру, свежие сверху.
func (r *JobRepository) List(ctx context.Context, filter JobListFilter) ([]models.Job, int, error) {
	where := `WHERE is_active = TRUE`
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.Status != "" {
		addArg("status = $%d", filter.Status)
	}
	if filter.EmployerID != nil {
		addArg("employer_id = $%d", *filter.EmployerID)
	}
	if filter.WorkerID != nil {
		// Вакансии, на которые исполнитель откликался.
		addArg("doc->'applications' @> $%d", fmt.Sprintf(`[{"worker_id":%q}]`, filter.WorkerID.String()))
	}
	if len(filter.Skills) > 0 {
		addArg("skills && $%d", pq.StringArray(filter.Skills))
	}
	if filter.MinBudget != nil {
		addArg("(doc->'budget'->>'min')::numeric >= $%d", *filter.MinBudget)
	}
	if filter.MaxBudget != nil {
		addArg("(doc->'budget'->>'max')::numeric <= $%d", *filter.MaxBudget)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM jobs ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("job repository: count %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, employer_id, status, is_active, doc, version
		FROM jobs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("job repository: list %w", err)
	}

	jobs, err := rowsToJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListOpenWithSkillOverlap возвращает открытые вакансии, пересекающиеся
// с навыками исполнителя хотя бы по одному навыку. Фильтр применяется
// на уровне хранилища, до скоринга: вакансии без пересечения не попадают
// в кандидаты вовсе.
func (r *JobRepository) ListOpenWithSkillOverlap(ctx context.Context, skills []string, limit int) ([]models.Job, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, employer_id, status, is_active, doc, version
		FROM jobs
		WHERE is_active = TRUE AND status = $1 AND skills && $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, models.JobStatusOpen, pq.StringArray(skills), limit); err != nil {
		return nil, fmt.Errorf("job repository: list with skill overlap %w", err)
	}
	return rowsToJobs(rows)
}
