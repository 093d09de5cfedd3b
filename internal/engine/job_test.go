package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

func validJobSpec() JobSpec {
	return JobSpec{
		Title:       "Разработка API",
		Description: "Нужен бэкенд для маркетплейса",
		Skills: []models.SkillRequirement{
			{Name: "go", Level: models.SkillLevelAdvanced},
			{Name: "postgresql"},
		},
		Budget: models.Budget{Min: 100, Max: 500, Currency: "INR"},
	}
}

func TestNewJob_Success(t *testing.T) {
	employerID := uuid.New()
	now := time.Now()

	job, err := NewJob(employerID, validJobSpec(), now)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, job.Status)
	assert.Equal(t, employerID, job.EmployerID)
	assert.Empty(t, job.Applications)
	assert.True(t, job.IsActive)
	assert.Equal(t, "remote", job.Location)
}

func TestNewJob_BudgetMinGreaterThanMax(t *testing.T) {
	spec := validJobSpec()
	spec.Budget = models.Budget{Min: 100, Max: 50}

	_, err := NewJob(uuid.New(), spec, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
}

func TestNewJob_EmptySkills(t *testing.T) {
	spec := validJobSpec()
	spec.Skills = nil

	_, err := NewJob(uuid.New(), spec, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
}

func TestNewJob_DuplicateSkillRejected(t *testing.T) {
	spec := validJobSpec()
	spec.Skills = []models.SkillRequirement{
		{Name: "go"},
		{Name: "go"},
	}

	_, err := NewJob(uuid.New(), spec, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))

	// Уникальность имён не зависит от регистра.
	spec.Skills = []models.SkillRequirement{
		{Name: "Go"},
		{Name: "go"},
	}
	_, err = NewJob(uuid.New(), spec, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
}

func TestApply_Success(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	workerID := uuid.New()

	app, err := Apply(job, workerID, "готов взяться", 250, "weekly", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, workerID, app.WorkerID)
	assert.Equal(t, 1, job.ApplicationsCount)
}

func TestApply_Duplicate(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	workerID := uuid.New()

	_, err := Apply(job, workerID, "первый отклик", 250, "", time.Now())
	require.NoError(t, err)

	_, err = Apply(job, workerID, "второй отклик", 300, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeDuplicateApplication, apperror.Code(err))
	assert.Equal(t, 1, job.ApplicationsCount)
}

func TestApply_AfterWithdrawAllowed(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	workerID := uuid.New()

	_, err := Apply(job, workerID, "отклик", 250, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, Withdraw(job, workerID, time.Now()))

	// После отзыва отклика исполнитель может откликнуться заново.
	_, err = Apply(job, workerID, "новый отклик", 200, "", time.Now())
	assert.NoError(t, err)
}

func TestApply_JobNotOpen(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	job.Status = models.JobStatusInProgress

	_, err := Apply(job, uuid.New(), "отклик", 250, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
}

func TestAccept_SetsWorkerContractAndStatus(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	workerID := uuid.New()
	contractID := uuid.New()
	_, err := Apply(job, workerID, "отклик", 250, "", time.Now())
	require.NoError(t, err)

	app, err := Accept(job, workerID, contractID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, app.Status)
	assert.Equal(t, models.JobStatusInProgress, job.Status)
	require.NotNil(t, job.SelectedWorkerID)
	assert.Equal(t, workerID, *job.SelectedWorkerID)
	require.NotNil(t, job.ContractID)
	assert.Equal(t, contractID, *job.ContractID)
}

func TestAccept_OtherApplicationsUntouched(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	first := uuid.New()
	second := uuid.New()
	_, err := Apply(job, first, "отклик", 250, "", time.Now())
	require.NoError(t, err)
	_, err = Apply(job, second, "отклик", 300, "", time.Now())
	require.NoError(t, err)

	_, err = Accept(job, first, uuid.New(), time.Now())
	require.NoError(t, err)

	// Соседние отклики намеренно остаются pending.
	assert.Equal(t, models.ApplicationStatusPending, job.ApplicationByWorker(second).Status)

	// Принятый отклик всегда ровно один.
	accepted := 0
	for _, app := range job.Applications {
		if app.Status == models.ApplicationStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAccept_SecondAcceptRejected(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	first := uuid.New()
	second := uuid.New()
	_, err := Apply(job, first, "отклик", 250, "", time.Now())
	require.NoError(t, err)
	_, err = Apply(job, second, "отклик", 300, "", time.Now())
	require.NoError(t, err)

	_, err = Accept(job, first, uuid.New(), time.Now())
	require.NoError(t, err)

	_, err = Accept(job, second, uuid.New(), time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeAlreadyDecided, apperror.Code(err))
}

func TestReject_OnlyThatApplication(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
	workerID := uuid.New()
	_, err := Apply(job, workerID, "отклик", 250, "", time.Now())
	require.NoError(t, err)

	require.NoError(t, Reject(job, workerID, time.Now()))
	assert.Equal(t, models.JobStatusOpen, job.Status)
	assert.Nil(t, job.SelectedWorkerID)
}

func TestReject_UnknownWorker(t *testing.T) {
	job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())

	err := Reject(job, uuid.New(), time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeNotFound, apperror.Code(err))
}

func TestCloseJob_Transitions(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		outcome string
		wantErr bool
	}{
		{"open_to_cancelled", models.JobStatusOpen, models.JobStatusCancelled, false},
		{"open_to_completed", models.JobStatusOpen, models.JobStatusCompleted, true},
		{"in_progress_to_completed", models.JobStatusInProgress, models.JobStatusCompleted, false},
		{"in_progress_to_cancelled", models.JobStatusInProgress, models.JobStatusCancelled, false},
		{"completed_is_terminal", models.JobStatusCompleted, models.JobStatusCancelled, true},
		{"cancelled_is_terminal", models.JobStatusCancelled, models.JobStatusCompleted, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job, _ := NewJob(uuid.New(), validJobSpec(), time.Now())
			job.Status = tc.status

			err := CloseJob(job, tc.outcome, time.Now())
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.outcome, job.Status)
			}
		})
	}
}
