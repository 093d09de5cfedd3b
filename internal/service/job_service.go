package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/logger"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
)

// Сколько раз перечитываем агрегат при конфликте версий.
const maxConflictRetries = 3

// JobRepository описывает зависимости JobService от хранилища вакансий.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.JobListFilter) ([]models.Job, int, error)
	ListOpenWithSkillOverlap(ctx context.Context, skills []string, limit int) ([]models.Job, error)
}

// JobContractRepository — часть хранилища контрактов, нужная при выборе исполнителя.
type JobContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
}

// JobUserRepository — часть хранилища пользователей, нужная для рекомендаций.
type JobUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier рассылает событие пользователю через realtime-канал.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload any)
}

// JobService управляет жизненным циклом вакансий и откликов.
type JobService struct {
	jobs      JobRepository
	contracts JobContractRepository
	users     JobUserRepository
	notifier  Notifier
}

// NewJobService создаёт сервис вакансий.
func NewJobService(jobs JobRepository, contracts JobContractRepository, users JobUserRepository) *JobService {
	return &JobService{jobs: jobs, contracts: contracts, users: users}
}

// SetNotifier подключает realtime-уведомления. До вызова уведомления не шлются.
func (s *JobService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *JobService) notify(userID uuid.UUID, event string, payload any) {
	if s.notifier != nil {
		s.notifier.Notify(userID, event, payload)
	}
}

// CreateJob публикует новую вакансию от имени работодателя.
func (s *JobService) CreateJob(ctx context.Context, employerID uuid.UUID, role string, spec engine.JobSpec) (*models.Job, error) {
	if role != models.RoleEmployer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "публиковать вакансии могут только работодатели")
	}

	job, err := engine.NewJob(employerID, spec, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob возвращает вакансию и учитывает просмотр.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}

	// Счётчик просмотров не критичен, ошибку только логируем.
	if err := s.jobs.IncrementViews(ctx, id); err != nil && logger.Log != nil {
		logger.Log.WithField("job_id", id).Warnf("job service: не удалось увеличить счётчик просмотров: %v", err)
	} else {
		job.Views++
	}

	return job, nil
}

// ListJobs возвращает страницу вакансий по фильтру.
func (s *JobService) ListJobs(ctx context.Context, filter repository.JobListFilter) ([]models.Job, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.jobs.List(ctx, filter)
}

// ApplyToJob добавляет отклик исполнителя. Конфликт версий при параллельных
// откликах разрешается перечитыванием агрегата: проверка дубликата выполняется
// заново на свежем состоянии.
func (s *JobService) ApplyToJob(ctx context.Context, jobID, workerID uuid.UUID, role, proposal string, bidAmount float64, duration string) (*models.Application, error) {
	if role != models.RoleWorker {
		return nil, apperror.New(apperror.ErrCodeForbidden, "откликаться на вакансии могут только исполнители")
	}

	var application *models.Application
	err := s.withJobRetry(ctx, jobID, func(job *models.Job) error {
		if job.EmployerID == workerID {
			return apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на собственную вакансию")
		}
		app, err := engine.Apply(job, workerID, proposal, bidAmount, duration, time.Now())
		if err != nil {
			return err
		}
		application = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(workerID, "application.submitted", map[string]any{"jobId": jobID})
	return application, nil
}

// WithdrawApplication отзывает отклик исполнителя.
func (s *JobService) WithdrawApplication(ctx context.Context, jobID, workerID uuid.UUID) error {
	return s.withJobRetry(ctx, jobID, func(job *models.Job) error {
		return engine.Withdraw(job, workerID, time.Now())
	})
}

// DecideApplication принимает или отклоняет отклик. Принятие создаёт контракт:
// сначала атомарно фиксируется вакансия с выбранным исполнителем и
// идентификатором будущего контракта, затем вставляется сам контракт.
// Если вставка контракта не удалась после фиксации вакансии, возвращается
// ошибка частичного выполнения, а идентификатор остаётся на вакансии для
// последующего восстановления.
func (s *JobService) DecideApplication(ctx context.Context, jobID, employerID, workerID uuid.UUID, decision string) (*models.Contract, error) {
	switch decision {
	case "accepted":
		return s.acceptApplication(ctx, jobID, employerID, workerID)
	case "rejected":
		err := s.withJobRetry(ctx, jobID, func(job *models.Job) error {
			if job.EmployerID != employerID {
				return apperror.ErrForbidden
			}
			return engine.Reject(job, workerID, time.Now())
		})
		if err != nil {
			return nil, err
		}
		s.notify(workerID, "application.rejected", map[string]any{"jobId": jobID})
		return nil, nil
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "решение должно быть accepted или rejected")
	}
}

func (s *JobService) acceptApplication(ctx context.Context, jobID, employerID, workerID uuid.UUID) (*models.Contract, error) {
	contractID := uuid.New()

	var contract *models.Contract
	err := s.withJobRetry(ctx, jobID, func(job *models.Job) error {
		if job.EmployerID != employerID {
			return apperror.ErrForbidden
		}

		now := time.Now()
		app, err := engine.Accept(job, workerID, contractID, now)
		if err != nil {
			return err
		}

		contract, err = engine.AwardContract(contractID, job, app, app.BidAmount, app.Duration, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.contracts.Create(ctx, contract); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"job_id":      jobID,
				"contract_id": contractID,
			}).Errorf("job service: вакансия зафиксирована, но контракт не создан: %v", err)
		}
		return nil, apperror.Wrap(err, apperror.ErrCodePartialAward,
			"исполнитель выбран, но контракт не создан; требуется восстановление")
	}

	s.notify(workerID, "application.accepted", map[string]any{
		"jobId":      jobID,
		"contractId": contractID,
	})
	return contract, nil
}

// CloseJob закрывает вакансию работодателем.
func (s *JobService) CloseJob(ctx context.Context, jobID, employerID uuid.UUID, outcome string) (*models.Job, error) {
	var closed *models.Job
	err := s.withJobRetry(ctx, jobID, func(job *models.Job) error {
		if job.EmployerID != employerID {
			return apperror.ErrForbidden
		}
		if err := engine.CloseJob(job, outcome, time.Now()); err != nil {
			return err
		}
		closed = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// DeleteJob скрывает вакансию из выдачи. Доступно только владельцу.
func (s *JobService) DeleteJob(ctx context.Context, jobID, employerID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return apperror.ErrJobNotFound
		}
		return err
	}
	if job.EmployerID != employerID {
		return apperror.ErrForbidden
	}
	return s.jobs.Delete(ctx, jobID)
}

// Recommendations подбирает открытые вакансии под навыки исполнителя,
// отсортированные по степени совпадения.
func (s *JobService) Recommendations(ctx context.Context, workerID uuid.UUID, limit int) ([]engine.JobMatch, error) {
	user, err := s.users.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	skills := user.SkillNames()
	if len(skills) == 0 {
		return []engine.JobMatch{}, nil
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// Предфильтр по пересечению навыков делает хранилище, точный скоринг — движок.
	candidates, err := s.jobs.ListOpenWithSkillOverlap(ctx, skills, limit*5)
	if err != nil {
		return nil, err
	}

	matches := engine.RecommendJobs(skills, candidates)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// withJobRetry выполняет read-modify-write вакансии, перечитывая агрегат
// при конфликте версий.
func (s *JobService) withJobRetry(ctx context.Context, jobID uuid.UUID, mutate func(*models.Job) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		job, err := s.jobs.GetByID(ctx, jobID)
		if err != nil {
			if errors.Is(err, repository.ErrJobNotFound) {
				return apperror.ErrJobNotFound
			}
			return err
		}

		if err := mutate(job); err != nil {
			return err
		}

		err = s.jobs.Update(ctx, job)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("job service: конфликт версий не разрешён за %d попыток", maxConflictRetries)
}
