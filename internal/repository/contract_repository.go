package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
)

// ErrContractNotFound возвращается, когда контракт не найден.
var ErrContractNotFound = errors.New("contract not found")

// ContractRepository хранит агрегат контракта одним JSONB-документом.
// Этапы, платежи, результаты и споры всегда читаются и пишутся вместе
// с контрактом, одним атомарным обновлением.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository создаёт новый экземпляр.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type contractRow struct {
	ID         uuid.UUID `db:"id"`
	JobID      uuid.UUID `db:"job_id"`
	EmployerID uuid.UUID `db:"employer_id"`
	WorkerID   uuid.UUID `db:"worker_id"`
	Status     string    `db:"status"`
	Doc        []byte    `db:"doc"`
	Version    int64     `db:"version"`
}

func (row *contractRow) toContract() (*models.Contract, error) {
	var contract models.Contract
	if err := json.Unmarshal(row.Doc, &contract); err != nil {
		return nil, fmt.Errorf("contract repository: unmarshal doc %w", err)
	}
	contract.ID = row.ID
	contract.JobID = row.JobID
	contract.EmployerID = row.EmployerID
	contract.WorkerID = row.WorkerID
	contract.Status = row.Status
	contract.Version = row.Version
	return &contract, nil
}

// Create сохраняет новый контракт.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	doc, err := json.Marshal(contract)
	if err != nil {
		return fmt.Errorf("contract repository: marshal doc %w", err)
	}

	query := `
		INSERT INTO contracts (id, job_id, employer_id, worker_id, status, doc, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		contract.ID, contract.JobID, contract.EmployerID, contract.WorkerID,
		contract.Status, doc, contract.CreatedAt,
	); err != nil {
		return fmt.Errorf("contract repository: insert %w", err)
	}
	contract.Version = 1
	return nil
}

// GetByID возвращает контракт по идентификатору.
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var row contractRow
	query := `SELECT id, job_id, employer_id, worker_id, status, doc, version FROM contracts WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by id %w", err)
	}
	return row.toContract()
}

// GetByJobID возвращает контракт по вакансии.
func (r *ContractRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Contract, error) {
	var row contractRow
	query := `SELECT id, job_id, employer_id, worker_id, status, doc, version FROM contracts WHERE job_id = $1`
	if err := r.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by job id %w", err)
	}
	return row.toContract()
}

// Update перезаписывает документ контракта с проверкой версии.
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	doc, err := json.Marshal(contract)
	if err != nil {
		return fmt.Errorf("contract repository: marshal doc %w", err)
	}

	query := `
		UPDATE contracts
		SET status = $2, doc = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $4
	`
	res, err := r.db.ExecContext(ctx, query, contract.ID, contract.Status, doc, contract.Version)
	if err != nil {
		return fmt.Errorf("contract repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("contract repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	contract.Version++
	return nil
}

// ListByParty возвращает контракты, где пользователь — одна из сторон.
func (r *ContractRepository) ListByParty(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Contract, int, error) {
	where := `WHERE (employer_id = $1 OR worker_id = $1)`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contracts `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("contract repository: count %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, job_id, employer_id, worker_id, status, doc, version
		FROM contracts %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []contractRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("contract repository: list by party %w", err)
	}

	contracts := make([]models.Contract, 0, len(rows))
	for i := range rows {
		contract, err := rows[i].toContract()
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *contract)
	}
	return contracts, total, nil
}
