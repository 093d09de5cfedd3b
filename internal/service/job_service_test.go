package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
)

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobRepo) Update(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobRepo) List(ctx context.Context, filter repository.JobListFilter) ([]models.Job, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Job), args.Int(1), args.Error(2)
}

func (m *mockJobRepo) ListOpenWithSkillOverlap(ctx context.Context, skills []string, limit int) ([]models.Job, error) {
	args := m.Called(ctx, skills, limit)
	return args.Get(0).([]models.Job), args.Error(1)
}

type mockContractWriter struct {
	mock.Mock
}

func (m *mockContractWriter) Create(ctx context.Context, contract *models.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func openJob(employerID uuid.UUID) *models.Job {
	return &models.Job{
		ID:         uuid.New(),
		EmployerID: employerID,
		Title:      "Бэкенд на Go",
		Status:     models.JobStatusOpen,
		Skills: []models.SkillRequirement{
			{Name: "go", Level: models.SkillLevelIntermediate},
		},
		CreatedAt: time.Now(),
	}
}

func TestJobService_CreateJob_WorkerForbidden(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))

	_, err := svc.CreateJob(context.Background(), uuid.New(), models.RoleWorker, engine.JobSpec{Title: "x"})
	assert.Error(t, err)
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
	jobs.AssertNotCalled(t, "Create")
}

func TestJobService_ApplyToJob_Success(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))
	workerID := uuid.New()
	job := openJob(uuid.New())

	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()
	jobs.On("Update", mock.Anything, job).Return(nil).Once()

	app, err := svc.ApplyToJob(context.Background(), job.ID, workerID, models.RoleWorker, "Готов взяться", 500, "1w")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, 1, job.ApplicationsCount)
	jobs.AssertExpectations(t)
}

func TestJobService_ApplyToJob_OwnJob(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))
	employerID := uuid.New()
	job := openJob(employerID)

	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()

	_, err := svc.ApplyToJob(context.Background(), job.ID, employerID, models.RoleWorker, "Сам себе исполнитель", 500, "1w")
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
	jobs.AssertNotCalled(t, "Update")
}

// Конфликт версий при параллельном отклике: после перечитывания в свежем
// состоянии уже есть отклик этого исполнителя, и дубликат отклоняется.
func TestJobService_ApplyToJob_ConflictRevealsDuplicate(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))
	workerID := uuid.New()
	employerID := uuid.New()

	first := openJob(employerID)
	jobs.On("GetByID", mock.Anything, first.ID).Return(first, nil).Once()
	jobs.On("Update", mock.Anything, first).Return(repository.ErrVersionConflict).Once()

	// Свежее состояние: параллельный запрос уже записал отклик.
	fresh := openJob(employerID)
	fresh.ID = first.ID
	fresh.Applications = []models.Application{
		{WorkerID: workerID, Status: models.ApplicationStatusPending},
	}
	jobs.On("GetByID", mock.Anything, first.ID).Return(fresh, nil).Once()

	_, err := svc.ApplyToJob(context.Background(), first.ID, workerID, models.RoleWorker, "Повтор", 500, "1w")
	assert.Equal(t, apperror.ErrCodeDuplicateApplication, apperror.Code(err))
	jobs.AssertExpectations(t)
}

func TestJobService_ApplyToJob_ConflictRetrySucceeds(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))
	workerID := uuid.New()
	employerID := uuid.New()

	first := openJob(employerID)
	jobs.On("GetByID", mock.Anything, first.ID).Return(first, nil).Once()
	jobs.On("Update", mock.Anything, first).Return(repository.ErrVersionConflict).Once()

	fresh := openJob(employerID)
	fresh.ID = first.ID
	jobs.On("GetByID", mock.Anything, first.ID).Return(fresh, nil).Once()
	jobs.On("Update", mock.Anything, fresh).Return(nil).Once()

	app, err := svc.ApplyToJob(context.Background(), first.ID, workerID, models.RoleWorker, "Ещё раз", 500, "1w")
	require.NoError(t, err)
	assert.Equal(t, workerID, app.WorkerID)
	jobs.AssertExpectations(t)
}

func TestJobService_DecideApplication_AcceptCreatesContract(t *testing.T) {
	jobs := new(mockJobRepo)
	contracts := new(mockContractWriter)
	svc := NewJobService(jobs, contracts, new(mockUserReader))

	employerID := uuid.New()
	workerID := uuid.New()
	job := openJob(employerID)
	job.Applications = []models.Application{
		{WorkerID: workerID, Status: models.ApplicationStatusPending, BidAmount: 750, Duration: "2w"},
	}

	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()
	jobs.On("Update", mock.Anything, job).Return(nil).Once()
	contracts.On("Create", mock.Anything, mock.AnythingOfType("*models.Contract")).Return(nil).Once()

	contract, err := svc.DecideApplication(context.Background(), job.ID, employerID, workerID, "accepted")
	require.NoError(t, err)
	require.NotNil(t, contract)

	assert.Equal(t, models.JobStatusInProgress, job.Status)
	require.NotNil(t, job.SelectedWorkerID)
	require.NotNil(t, job.ContractID)
	assert.Equal(t, workerID, *job.SelectedWorkerID)
	assert.Equal(t, contract.ID, *job.ContractID)
	assert.Equal(t, float64(750), contract.Terms.Amount)
	assert.Equal(t, models.ContractStatusDraft, contract.Status)
	jobs.AssertExpectations(t)
	contracts.AssertExpectations(t)
}

// Вакансия зафиксирована, но вставка контракта не удалась: возвращается
// ошибка частичного выполнения, идентификатор контракта остаётся на вакансии.
func TestJobService_DecideApplication_PartialAward(t *testing.T) {
	jobs := new(mockJobRepo)
	contracts := new(mockContractWriter)
	svc := NewJobService(jobs, contracts, new(mockUserReader))

	employerID := uuid.New()
	workerID := uuid.New()
	job := openJob(employerID)
	job.Applications = []models.Application{
		{WorkerID: workerID, Status: models.ApplicationStatusPending, BidAmount: 750, Duration: "2w"},
	}

	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()
	jobs.On("Update", mock.Anything, job).Return(nil).Once()
	contracts.On("Create", mock.Anything, mock.AnythingOfType("*models.Contract")).
		Return(errors.New("insert failed")).Once()

	_, err := svc.DecideApplication(context.Background(), job.ID, employerID, workerID, "accepted")
	assert.Equal(t, apperror.ErrCodePartialAward, apperror.Code(err))
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	assert.NotNil(t, job.ContractID)
}

func TestJobService_DecideApplication_NotOwner(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))

	job := openJob(uuid.New())
	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()

	_, err := svc.DecideApplication(context.Background(), job.ID, uuid.New(), uuid.New(), "accepted")
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
	jobs.AssertNotCalled(t, "Update")
}

func TestJobService_Recommendations(t *testing.T) {
	jobs := new(mockJobRepo)
	users := new(mockUserReader)
	svc := NewJobService(jobs, new(mockContractWriter), users)

	workerID := uuid.New()
	worker := &models.User{
		ID:   workerID,
		Role: models.RoleWorker,
		Skills: []models.Skill{
			{Name: "Python", Level: models.SkillLevelExpert},
			{Name: "AWS", Level: models.SkillLevelIntermediate},
		},
	}
	users.On("GetByID", mock.Anything, workerID).Return(worker, nil).Once()

	exact := models.Job{
		ID:     uuid.New(),
		Status: models.JobStatusOpen,
		Skills: []models.SkillRequirement{{Name: "python"}, {Name: "aws"}},
	}
	partial := models.Job{
		ID:     uuid.New(),
		Status: models.JobStatusOpen,
		Skills: []models.SkillRequirement{{Name: "python"}, {Name: "java"}},
	}
	jobs.On("ListOpenWithSkillOverlap", mock.Anything, []string{"python", "aws"}, 100).
		Return([]models.Job{partial, exact}, nil).Once()

	matches, err := svc.Recommendations(context.Background(), workerID, 20)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, exact.ID, matches[0].Job.ID)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, 50, matches[1].Score)
}

func TestJobService_Recommendations_NoSkills(t *testing.T) {
	jobs := new(mockJobRepo)
	users := new(mockUserReader)
	svc := NewJobService(jobs, new(mockContractWriter), users)

	workerID := uuid.New()
	users.On("GetByID", mock.Anything, workerID).Return(&models.User{ID: workerID}, nil).Once()

	matches, err := svc.Recommendations(context.Background(), workerID, 20)
	require.NoError(t, err)
	assert.Empty(t, matches)
	jobs.AssertNotCalled(t, "ListOpenWithSkillOverlap")
}

func TestJobService_CloseJob(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := NewJobService(jobs, new(mockContractWriter), new(mockUserReader))

	employerID := uuid.New()
	job := openJob(employerID)
	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil).Once()
	jobs.On("Update", mock.Anything, job).Return(nil).Once()

	closed, err := svc.CloseJob(context.Background(), job.ID, employerID, models.JobStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, closed.Status)
}
