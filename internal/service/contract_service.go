package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/goroutine"
	"github.com/ignatzorin/skillmarket-backend/internal/logger"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/validation"
)

// ContractRepository описывает зависимости ContractService от хранилища контрактов.
type ContractRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	ListByParty(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Contract, int, error)
}

// ContractUserRepository — часть хранилища пользователей для переноса рейтинга.
type ContractUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// ContractService управляет жизненным циклом контрактов: этапы, результаты,
// споры и взаимные оценки сторон.
type ContractService struct {
	contracts ContractRepository
	users     ContractUserRepository
	notifier  Notifier
}

// NewContractService создаёт сервис контрактов.
func NewContractService(contracts ContractRepository, users ContractUserRepository) *ContractService {
	return &ContractService{contracts: contracts, users: users}
}

// SetNotifier подключает realtime-уведомления.
func (s *ContractService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *ContractService) notify(userID uuid.UUID, event string, payload any) {
	if s.notifier != nil {
		s.notifier.Notify(userID, event, payload)
	}
}

// GetContract возвращает контракт. Доступен только его сторонам.
func (s *ContractService) GetContract(ctx context.Context, contractID, userID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, err
	}
	if !contract.IsParty(userID) {
		return nil, apperror.ErrForbidden
	}
	return contract, nil
}

// ListMyContracts возвращает контракты, в которых участвует пользователь.
func (s *ContractService) ListMyContracts(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Contract, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.contracts.ListByParty(ctx, userID, status, limit, offset)
}

// SetStatus переводит контракт в новый статус по таблице переходов.
func (s *ContractService) SetStatus(ctx context.Context, contractID, userID uuid.UUID, status string) (*models.Contract, error) {
	return s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		return engine.SetContractStatus(contract, status, time.Now())
	})
}

// AddMilestone добавляет этап работ. Доступно только работодателю.
func (s *ContractService) AddMilestone(ctx context.Context, contractID, userID uuid.UUID, title, description string, amount float64, dueDate *time.Time) (*models.Contract, error) {
	return s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		if contract.EmployerID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "этапы добавляет только работодатель")
		}
		_, err := engine.AddMilestone(contract, title, description, amount, dueDate, time.Now())
		return err
	})
}

// SetMilestoneStatus меняет статус этапа по его порядковому номеру.
func (s *ContractService) SetMilestoneStatus(ctx context.Context, contractID, userID uuid.UUID, index int, status string) (*models.Contract, error) {
	return s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		return engine.SetMilestoneStatus(contract, index, status, time.Now())
	})
}

// SubmitDeliverable прикладывает результат работы. Доступно только исполнителю.
func (s *ContractService) SubmitDeliverable(ctx context.Context, contractID, userID uuid.UUID, title, description, fileURL string) (*models.Contract, error) {
	contract, err := s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		if contract.WorkerID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "результаты сдаёт только исполнитель")
		}
		_, err := engine.SubmitDeliverable(contract, title, description, fileURL, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(contract.EmployerID, "deliverable.submitted", map[string]any{"contractId": contractID})
	return contract, nil
}

// ReviewDeliverable принимает или отклоняет результат. Доступно только работодателю.
func (s *ContractService) ReviewDeliverable(ctx context.Context, contractID, userID uuid.UUID, index int, approve bool, feedback string) (*models.Contract, error) {
	contract, err := s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		if contract.EmployerID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "результаты проверяет только работодатель")
		}
		return engine.ReviewDeliverable(contract, index, approve, feedback, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(contract.WorkerID, "deliverable.reviewed", map[string]any{
		"contractId": contractID,
		"approved":   approve,
	})
	return contract, nil
}

// RaiseDispute открывает спор от имени одной из сторон. Контракт переходит
// в статус disputed из любого состояния.
func (s *ContractService) RaiseDispute(ctx context.Context, contractID, userID uuid.UUID, reason, description string) (*models.Contract, error) {
	if err := validation.ValidateNonEmpty("причина спора", reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("причина спора", reason, 0, validation.MaxDisputeReasonLen); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		_, err := engine.RaiseDispute(contract, userID, reason, description, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	other := contract.EmployerID
	if other == userID {
		other = contract.WorkerID
	}
	s.notify(other, "dispute.raised", map[string]any{"contractId": contractID})
	return contract, nil
}

// ResolveDispute закрывает спор с решением и переводит контракт в целевой
// статус (active, completed либо cancelled).
func (s *ContractService) ResolveDispute(ctx context.Context, contractID, userID uuid.UUID, resolution, targetStatus string) (*models.Contract, error) {
	contract, err := s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		return engine.ResolveDispute(contract, resolution, targetStatus, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.notify(contract.EmployerID, "dispute.resolved", map[string]any{"contractId": contractID})
	s.notify(contract.WorkerID, "dispute.resolved", map[string]any{"contractId": contractID})
	return contract, nil
}

// RateContract сохраняет оценку стороны и асинхронно переносит её в сводный
// рейтинг оценённого пользователя. Перенос не входит в транзакцию контракта:
// его сбой логируется, оценка на контракте при этом уже сохранена.
func (s *ContractService) RateContract(ctx context.Context, contractID, userID uuid.UUID, rating int, review string) (*models.Contract, error) {
	if err := validation.ValidateLength("отзыв", review, 0, validation.MaxReviewLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.mutate(ctx, contractID, userID, func(contract *models.Contract) error {
		return engine.RateContract(contract, userID, rating, review, time.Now())
	})
	if err != nil {
		return nil, err
	}

	rated := contract.WorkerID
	if userID == contract.WorkerID {
		rated = contract.EmployerID
	}

	goroutine.SafeGo(func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.applyUserRating(bg, rated, rating); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"contract_id": contractID,
				"user_id":     rated,
			}).Warnf("contract service: не удалось обновить рейтинг пользователя: %v", err)
		}
	})

	s.notify(rated, "contract.rated", map[string]any{"contractId": contractID})
	return contract, nil
}

// applyUserRating переносит оценку в агрегат пользователя с перечитыванием
// при конфликте версий.
func (s *ContractService) applyUserRating(ctx context.Context, userID uuid.UUID, rating int) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		user.ApplyRating(rating)
		user.UpdatedAt = time.Now()

		err = s.users.Update(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("contract service: конфликт версий не разрешён за %d попыток", maxConflictRetries)
}

// mutate выполняет read-modify-write контракта с проверкой стороны и
// перечитыванием при конфликте версий.
func (s *ContractService) mutate(ctx context.Context, contractID, userID uuid.UUID, fn func(*models.Contract) error) (*models.Contract, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		contract, err := s.contracts.GetByID(ctx, contractID)
		if err != nil {
			if errors.Is(err, repository.ErrContractNotFound) {
				return nil, apperror.ErrContractNotFound
			}
			return nil, err
		}

		if !contract.IsParty(userID) {
			return nil, apperror.ErrForbidden
		}

		if err := fn(contract); err != nil {
			return nil, err
		}

		err = s.contracts.Update(ctx, contract)
		if err == nil {
			return contract, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("contract service: конфликт версий не разрешён за %d попыток", maxConflictRetries)
}
