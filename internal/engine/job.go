// Package engine содержит чистые правила жизненного цикла вакансий и
// контрактов. Функции получают агрегат и команду, мутируют копию состояния
// в памяти и возвращают типизированную ошибку; сохранение — забота сервисов.
package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

// JobSpec входные данные новой вакансии.
type JobSpec struct {
	Title       string
	Description string
	Category    string
	Skills      []models.SkillRequirement
	Budget      models.Budget
	Duration    string
	Location    string
	Tags        []string
}

// NewJob собирает вакансию со статусом open и пустым списком откликов.
func NewJob(employerID uuid.UUID, spec JobSpec, now time.Time) (*models.Job, error) {
	if spec.Title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "заголовок вакансии не может быть пустым")
	}
	if spec.Description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание вакансии не может быть пустым")
	}
	if len(spec.Skills) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "нужно указать хотя бы один требуемый навык")
	}
	if spec.Budget.Min > spec.Budget.Max {
		return nil, apperror.New(apperror.ErrCodeValidation, "минимальный бюджет не может быть больше максимального")
	}
	if spec.Budget.Min < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	// Требуемые навыки — множество: имена уникальны без учёта регистра.
	seen := make(map[string]struct{}, len(spec.Skills))
	for _, s := range spec.Skills {
		if s.Name == "" {
			return nil, apperror.New(apperror.ErrCodeValidation, "имя навыка не может быть пустым")
		}
		if s.Level != "" {
			if _, ok := models.ValidSkillLevels[s.Level]; !ok {
				return nil, apperror.New(apperror.ErrCodeValidation, "некорректный уровень навыка "+s.Name)
			}
		}
		key := strings.ToLower(s.Name)
		if _, ok := seen[key]; ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "навык "+s.Name+" указан дважды")
		}
		seen[key] = struct{}{}
	}

	location := spec.Location
	if location == "" {
		location = "remote"
	}
	currency := spec.Budget.Currency
	if currency == "" {
		currency = "INR"
	}

	return &models.Job{
		ID:          uuid.New(),
		EmployerID:  employerID,
		Title:       spec.Title,
		Description: spec.Description,
		Category:    spec.Category,
		Skills:      spec.Skills,
		Budget: models.Budget{
			Min:      spec.Budget.Min,
			Max:      spec.Budget.Max,
			Currency: currency,
		},
		Duration:  spec.Duration,
		Location:  location,
		Status:    models.JobStatusOpen,
		Tags:      spec.Tags,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply добавляет отклик исполнителя. Вакансия должна быть открыта,
// а у исполнителя не должно быть другого не отозванного отклика.
func Apply(job *models.Job, workerID uuid.UUID, proposal string, bidAmount float64, duration string, now time.Time) (*models.Application, error) {
	if job.Status != models.JobStatusOpen {
		return nil, apperror.ErrJobNotOpen
	}
	if proposal == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сопроводительное письмо не может быть пустым")
	}
	if bidAmount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "ставка должна быть положительной")
	}
	if job.ApplicationByWorker(workerID) != nil {
		return nil, apperror.ErrDuplicateApplication
	}

	job.Applications = append(job.Applications, models.Application{
		WorkerID:  workerID,
		Proposal:  proposal,
		BidAmount: bidAmount,
		Duration:  duration,
		Status:    models.ApplicationStatusPending,
		AppliedAt: now,
		UpdatedAt: now,
	})
	job.ApplicationsCount = len(job.Applications)
	job.UpdatedAt = now

	return &job.Applications[len(job.Applications)-1], nil
}

// Withdraw отзывает собственный отклик исполнителя. Отозвать можно только
// ожидающий решения отклик; после отзыва исполнитель может откликнуться снова.
func Withdraw(job *models.Job, workerID uuid.UUID, now time.Time) error {
	app := job.ApplicationByWorker(workerID)
	if app == nil {
		return apperror.ErrApplicationNotFound
	}
	if app.Status != models.ApplicationStatusPending {
		return apperror.New(apperror.ErrCodeInvalidTransition, "отозвать можно только ожидающий отклик")
	}
	app.Status = models.ApplicationStatusWithdrawn
	app.UpdatedAt = now
	job.UpdatedAt = now
	return nil
}

// Accept принимает отклик исполнителя: отклик получает статус accepted,
// вакансия переходит в in-progress, фиксируются выбранный исполнитель и
// будущий идентификатор контракта. Остальные ожидающие отклики намеренно
// не отклоняются автоматически.
func Accept(job *models.Job, workerID uuid.UUID, contractID uuid.UUID, now time.Time) (*models.Application, error) {
	app := job.ApplicationByWorker(workerID)
	if app == nil {
		return nil, apperror.ErrApplicationNotFound
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperror.ErrAlreadyDecided
	}

	app.Status = models.ApplicationStatusAccepted
	app.UpdatedAt = now
	job.Status = models.JobStatusInProgress
	job.SelectedWorkerID = &workerID
	job.ContractID = &contractID
	job.UpdatedAt = now

	return app, nil
}

// Reject отклоняет один отклик, не трогая состояние вакансии.
func Reject(job *models.Job, workerID uuid.UUID, now time.Time) error {
	app := job.ApplicationByWorker(workerID)
	if app == nil {
		return apperror.ErrApplicationNotFound
	}
	if app.Status == models.ApplicationStatusAccepted {
		return apperror.New(apperror.ErrCodeInvalidTransition, "нельзя отклонить уже принятый отклик")
	}
	app.Status = models.ApplicationStatusRejected
	app.UpdatedAt = now
	job.UpdatedAt = now
	return nil
}

// CloseJob завершает или отменяет вакансию.
// Разрешены переходы open→cancelled, in-progress→completed, in-progress→cancelled.
func CloseJob(job *models.Job, outcome string, now time.Time) error {
	switch outcome {
	case models.JobStatusCompleted:
		if job.Status != models.JobStatusInProgress {
			return apperror.New(apperror.ErrCodeInvalidTransition, "завершить можно только вакансию в работе")
		}
	case models.JobStatusCancelled:
		if job.Status != models.JobStatusOpen && job.Status != models.JobStatusInProgress {
			return apperror.New(apperror.ErrCodeInvalidTransition, "отменить можно только открытую вакансию или вакансию в работе")
		}
	default:
		return apperror.New(apperror.ErrCodeValidation, "некорректный итоговый статус вакансии")
	}

	job.Status = outcome
	job.UpdatedAt = now
	return nil
}
