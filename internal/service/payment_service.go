package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/gateway"
	"github.com/ignatzorin/skillmarket-backend/internal/logger"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/validation"
)

// PaymentGateway описывает внешний платёжный шлюз.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*gateway.PaymentOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PaymentService проводит платежи по контрактам: создаёт заказы в шлюзе,
// проверяет подписи и зачисляет средства на кошелёк исполнителя.
type PaymentService struct {
	contracts ContractRepository
	users     ContractUserRepository
	gateway   PaymentGateway
	notifier  Notifier
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(contracts ContractRepository, users ContractUserRepository, gw PaymentGateway) *PaymentService {
	return &PaymentService{contracts: contracts, users: users, gateway: gw}
}

// SetNotifier подключает realtime-уведомления.
func (s *PaymentService) SetNotifier(n Notifier) {
	s.notifier = n
}

// VerifyPaymentInput — данные подтверждения платежа от шлюза.
type VerifyPaymentInput struct {
	OrderID     string
	PaymentID   string
	Signature   string
	Amount      float64
	PaymentType string
	Description string
}

// CreateOrder создаёт заказ в платёжном шлюзе для оплаты по контракту.
// Платит работодатель.
func (s *PaymentService) CreateOrder(ctx context.Context, contractID, userID uuid.UUID, amount float64) (*gateway.PaymentOrder, error) {
	if err := validation.ValidateAmount("сумма платежа", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, err
	}
	if contract.EmployerID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "платежи по контракту проводит работодатель")
	}
	if contract.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "контракт завершён, платежи недоступны")
	}

	return s.gateway.CreateOrder(ctx, amount, contract.Terms.Currency, contractID.String())
}

// VerifyAndRecord проверяет подпись платежа и фиксирует его на контракте,
// после чего зачисляет сумму на кошелёк исполнителя. Зачисление идёт вторым
// шагом: если оно не удалось, платёж уже записан, и возвращается ошибка
// частичного выполнения.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, contractID, userID uuid.UUID, in VerifyPaymentInput) (*models.Payment, error) {
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return nil, apperror.New(apperror.ErrCodeValidation, "подпись платежа не прошла проверку")
	}
	if err := validation.ValidateAmount("сумма платежа", in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var payment *models.Payment
	var contract *models.Contract
	err := s.mutateContract(ctx, contractID, func(c *models.Contract) error {
		if c.EmployerID != userID {
			return apperror.New(apperror.ErrCodeForbidden, "платежи по контракту проводит работодатель")
		}
		p, err := engine.RecordPayment(c, in.Amount, in.PaymentType, in.PaymentID, in.Description, time.Now())
		if err != nil {
			return err
		}
		payment = p
		contract = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.creditWorker(ctx, contract.WorkerID, in.Amount, in.PaymentID, contractID); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"contract_id": contractID,
				"worker_id":   contract.WorkerID,
				"payment_id":  in.PaymentID,
			}).Errorf("payment service: платёж записан, но кошелёк не пополнен: %v", err)
		}
		return payment, apperror.Wrap(err, apperror.ErrCodePartialPayment,
			"платёж записан, но зачисление на кошелёк не выполнено; требуется восстановление")
	}

	if s.notifier != nil {
		s.notifier.Notify(contract.WorkerID, "payment.received", map[string]any{
			"contractId": contractID,
			"amount":     in.Amount,
		})
	}
	return payment, nil
}

// creditWorker зачисляет сумму на кошелёк исполнителя с перечитыванием
// при конфликте версий.
func (s *PaymentService) creditWorker(ctx context.Context, workerID uuid.UUID, amount float64, paymentID string, contractID uuid.UUID) error {
	description := fmt.Sprintf("Оплата по контракту %s", contractID)
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		user, err := s.users.GetByID(ctx, workerID)
		if err != nil {
			return err
		}

		user.Credit(amount, description, paymentID, time.Now())
		user.UpdatedAt = time.Now()

		err = s.users.Update(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("payment service: конфликт версий не разрешён за %d попыток", maxConflictRetries)
}

// mutateContract выполняет read-modify-write контракта с перечитыванием
// при конфликте версий.
func (s *PaymentService) mutateContract(ctx context.Context, contractID uuid.UUID, fn func(*models.Contract) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		contract, err := s.contracts.GetByID(ctx, contractID)
		if err != nil {
			if errors.Is(err, repository.ErrContractNotFound) {
				return apperror.ErrContractNotFound
			}
			return err
		}

		if err := fn(contract); err != nil {
			return err
		}

		err = s.contracts.Update(ctx, contract)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("payment service: конфликт версий не разрешён за %d попыток", maxConflictRetries)
}
