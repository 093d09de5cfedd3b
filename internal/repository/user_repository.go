package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrVersionConflict  = errors.New("document version conflict")
	ErrSessionNotFound  = errors.New("session not found")
)

// UserRepository хранит агрегат пользователя одним JSONB-документом.
// Колонки email, role, skills дублируются из документа для выборок,
// version используется для оптимистичной блокировки.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	Doc          []byte    `db:"doc"`
	Version      int64     `db:"version"`
}

func (row *userRow) toUser() (*models.User, error) {
	var user models.User
	if err := json.Unmarshal(row.Doc, &user); err != nil {
		return nil, fmt.Errorf("user repository: unmarshal doc %w", err)
	}
	// Колонки-конверты имеют приоритет над содержимым документа.
	user.ID = row.ID
	user.Email = row.Email
	user.PasswordHash = row.PasswordHash
	user.Role = row.Role
	user.IsActive = row.IsActive
	user.Version = row.Version
	return &user, nil
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("user repository: marshal doc %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, role, is_active, skills, doc, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
	`
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive,
		pq.StringArray(user.SkillNames()), doc,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: insert %w", err)
	}
	user.Version = 1
	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var row userRow
	query := `SELECT id, email, password_hash, role, is_active, doc, version FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return row.toUser()
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	query := `SELECT id, email, password_hash, role, is_active, doc, version FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return row.toUser()
}

// Update перезаписывает документ пользователя с проверкой версии.
// Несовпадение версии означает параллельное изменение агрегата.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("user repository: marshal doc %w", err)
	}

	query := `
		UPDATE users
		SET email = $2, password_hash = $3, role = $4, is_active = $5,
		    skills = $6, doc = $7, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive,
		pq.StringArray(user.SkillNames()), doc, user.Version,
	)
	if err != nil {
		return fmt.Errorf("user repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	user.Version++
	return nil
}

// UpdateLastLoginAt отмечает время последнего входа.
// Точечное обновление без смены версии: с бизнес-состоянием поле не конкурирует.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET doc = jsonb_set(doc, '{last_login_at}', to_jsonb(NOW()), true), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// ListWorkers возвращает активных исполнителей с фильтром по навыкам.
func (r *UserRepository) ListWorkers(ctx context.Context, skills []string, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, is_active, doc, version
		FROM users
		WHERE role = 'worker' AND is_active = TRUE
	`
	args := []interface{}{}
	if len(skills) > 0 {
		query += ` AND skills && $1`
		args = append(args, pq.StringArray(skills))
	}
	query += fmt.Sprintf(` ORDER BY (doc->'rating'->>'average')::numeric DESC NULLS LAST LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("user repository: list workers %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for i := range rows {
		user, err := rows[i].toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreateSession сохраняет refresh-сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	query := `
		INSERT INTO sessions (id, user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}
	return nil
}

// GetSessionByToken возвращает сессию по refresh токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM sessions
		WHERE refresh_token = $1 AND expires_at > NOW()
	`
	if err := r.db.GetContext(ctx, &session, query, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

// ListSessions возвращает активные сессии пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	query := `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &sessions, query, userID, time.Now()); err != nil {
		return nil, fmt.Errorf("user repository: list sessions %w", err)
	}
	return sessions, nil
}

// DeleteSessionByID удаляет конкретную сессию пользователя.
func (r *UserRepository) DeleteSessionByID(ctx context.Context, sessionID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
