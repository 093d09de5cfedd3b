package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/gateway"
	"github.com/ignatzorin/skillmarket-backend/internal/logger"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/storage"
)

// CertificationGateway описывает внешний реестр сертификации навыков.
type CertificationGateway interface {
	Certify(ctx context.Context, userID uuid.UUID, skillName, certificateHash string) (*gateway.CertificationResult, error)
}

// CertificateStore описывает файловое хранилище сертификатов.
type CertificateStore interface {
	Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (*storage.SavedCertificate, error)
	Delete(ctx context.Context, relativePath string) error
}

// CertificationService сертифицирует навыки исполнителей: принимает файл
// сертификата, публикует его хэш во внешнем реестре и помечает навык
// подтверждённым. Идентификатор транзакции реестра сохраняется как есть.
type CertificationService struct {
	users   ContractUserRepository
	gateway CertificationGateway
	store   CertificateStore
}

// NewCertificationService создаёт сервис сертификации.
func NewCertificationService(users ContractUserRepository, gw CertificationGateway, store CertificateStore) *CertificationService {
	return &CertificationService{users: users, gateway: gw, store: store}
}

// CertifySkill сертифицирует навык пользователя по загруженному файлу.
// Навык должен уже существовать в профиле.
func (s *CertificationService) CertifySkill(ctx context.Context, userID uuid.UUID, skillName, fileName string, file io.Reader) (*models.Skill, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if user.SkillByName(skillName) == nil {
		return nil, apperror.New(apperror.ErrCodeNotFound, "навык не найден в профиле")
	}

	saved, err := s.store.Save(ctx, userID, fileName, file)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	result, err := s.gateway.Certify(ctx, userID, skillName, saved.SHA256)
	if err != nil {
		// Реестр не подтвердил — файл не оставляем.
		if delErr := s.store.Delete(ctx, saved.RelativePath); delErr != nil && logger.Log != nil {
			logger.Log.WithField("user_id", userID).Warnf("certification service: не удалось удалить файл сертификата %s: %v", saved.RelativePath, delErr)
		}
		return nil, err
	}

	var certified *models.Skill
	err = s.mutateUser(ctx, userID, func(u *models.User) error {
		skill := u.SkillByName(skillName)
		if skill == nil {
			return apperror.New(apperror.ErrCodeNotFound, "навык не найден в профиле")
		}
		now := time.Now()
		hash := result.CertificateHash
		txID := result.TransactionID
		skill.Certified = true
		skill.CertificateHash = &hash
		skill.CertificationTxID = &txID
		skill.CertifiedAt = &now
		u.UpdatedAt = now
		certified = skill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return certified, nil
}

// mutateUser выполняет read-modify-write пользователя с перечитыванием
// при конфликте версий.
func (s *CertificationService) mutateUser(ctx context.Context, userID uuid.UUID, fn func(*models.User) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := fn(user); err != nil {
			return err
		}

		err = s.users.Update(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return apperror.New(apperror.ErrCodeConflict, "не удалось сохранить изменения профиля, попробуйте ещё раз")
}
