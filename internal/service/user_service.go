package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/validation"
)

// UserRepository описывает зависимости UserService от хранилища пользователей.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListWorkers(ctx context.Context, skills []string, limit, offset int) ([]*models.User, error)
}

// UserService отвечает за профили, навыки и кошельки.
type UserService struct {
	repo UserRepository
}

// NewUserService создаёт сервис пользователей.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// ProfileUpdate содержит изменяемые поля профиля. Nil-поля не трогаются.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Bio      *string
	Location *string
}

// SkillInput — навык при добавлении или обновлении.
type SkillInput struct {
	Name  string
	Level string
}

// GetUser возвращает пользователя по идентификатору.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile обновляет поля профиля пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	if in.Name != nil {
		if err := validation.ValidateLength("имя", *in.Name, validation.MinNameLength, validation.MaxNameLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.Bio != nil {
		if err := validation.ValidateLength("о себе", *in.Bio, 0, validation.MaxBioLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.Location != nil {
		if err := validation.ValidateLength("локация", *in.Location, 0, validation.MaxLocationLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	return s.mutate(ctx, userID, func(user *models.User) error {
		if in.Name != nil {
			user.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone != nil {
			user.Phone = in.Phone
		}
		if in.Bio != nil {
			user.Bio = in.Bio
		}
		if in.Location != nil {
			user.Location = in.Location
		}
		user.UpdatedAt = time.Now()
		return nil
	})
}

// SetSkills заменяет список навыков пользователя. Сертификация уже
// подтверждённых навыков сохраняется при совпадении названия.
func (s *UserService) SetSkills(ctx context.Context, userID uuid.UUID, skills []SkillInput) (*models.User, error) {
	names := make([]string, 0, len(skills))
	for _, sk := range skills {
		names = append(names, sk.Name)
	}
	if err := validation.ValidateSkills(names); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	for _, sk := range skills {
		if _, ok := models.ValidSkillLevels[sk.Level]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый уровень навыка: "+sk.Level)
		}
	}

	return s.mutate(ctx, userID, func(user *models.User) error {
		next := make([]models.Skill, 0, len(skills))
		for _, sk := range skills {
			skill := models.Skill{
				Name:  strings.TrimSpace(sk.Name),
				Level: sk.Level,
			}
			if prev := user.SkillByName(sk.Name); prev != nil && prev.Certified {
				skill.Certified = true
				skill.CertificateHash = prev.CertificateHash
				skill.CertificationTxID = prev.CertificationTxID
				skill.CertifiedAt = prev.CertifiedAt
			}
			next = append(next, skill)
		}
		user.Skills = next
		user.UpdatedAt = time.Now()
		return nil
	})
}

// Wallet возвращает кошелёк пользователя.
func (s *UserService) Wallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.Wallet, nil
}

// ListWorkers возвращает исполнителей, отфильтрованных по навыкам.
func (s *UserService) ListWorkers(ctx context.Context, skills []string, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	normalized := make([]string, 0, len(skills))
	for _, sk := range skills {
		sk = strings.ToLower(strings.TrimSpace(sk))
		if sk != "" {
			normalized = append(normalized, sk)
		}
	}
	return s.repo.ListWorkers(ctx, normalized, limit, offset)
}

// mutate выполняет read-modify-write пользователя с перечитыванием
// при конфликте версий.
func (s *UserService) mutate(ctx context.Context, userID uuid.UUID, fn func(*models.User) error) (*models.User, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		user, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, apperror.ErrUserNotFound
			}
			return nil, err
		}

		if err := fn(user); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, apperror.New(apperror.ErrCodeConflict, "не удалось сохранить изменения профиля, попробуйте ещё раз")
}
