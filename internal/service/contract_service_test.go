package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

func TestContractService_GetContract_NotParty(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()

	_, err := svc.GetContract(context.Background(), contract.ID, uuid.New())
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
}

func TestContractService_AddMilestone_OnlyEmployer(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()

	_, err := svc.AddMilestone(context.Background(), contract.ID, contract.WorkerID, "Этап 1", "", 300, nil)
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
	contracts.AssertNotCalled(t, "Update")
}

func TestContractService_AddMilestone_Success(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()
	contracts.On("Update", mock.Anything, contract).Return(nil).Once()

	updated, err := svc.AddMilestone(context.Background(), contract.ID, contract.EmployerID, "Этап 1", "Прототип", 300, nil)
	require.NoError(t, err)
	require.Len(t, updated.Terms.Milestones, 1)
	assert.Equal(t, models.MilestoneStatusPending, updated.Terms.Milestones[0].Status)
}

func TestContractService_RaiseDispute_FromCompleted(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contract.Status = models.ContractStatusCompleted
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()
	contracts.On("Update", mock.Anything, contract).Return(nil).Once()

	updated, err := svc.RaiseDispute(context.Background(), contract.ID, contract.WorkerID, "Оплата не получена", "Детали спора")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusDisputed, updated.Status)
	require.Len(t, updated.Disputes, 1)
	assert.Equal(t, contract.WorkerID, updated.Disputes[0].RaisedBy)
}

func TestContractService_ResolveDispute(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contract.Status = models.ContractStatusDisputed
	contract.Disputes = []models.Dispute{{
		RaisedBy: contract.WorkerID,
		Reason:   "Оплата не получена",
		Status:   models.DisputeStatusOpen,
	}}
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()
	contracts.On("Update", mock.Anything, contract).Return(nil).Once()

	updated, err := svc.ResolveDispute(context.Background(), contract.ID, contract.EmployerID, "Оплата проведена повторно", models.ContractStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, updated.Status)
	assert.Equal(t, models.DisputeStatusResolved, updated.Disputes[0].Status)
	require.NotNil(t, updated.Disputes[0].Resolution)
	assert.NotNil(t, updated.Disputes[0].ResolvedAt)
}

// Оценка сохраняется на контракте сразу; перенос в сводный рейтинг
// пользователя идёт отдельной горутиной.
func TestContractService_RateContract_UpdatesUserRating(t *testing.T) {
	contracts := new(mockContractRepo)
	users := new(mockUserRepo)
	svc := NewContractService(contracts, users)

	contract := activeContract(uuid.New(), uuid.New())
	contract.Status = models.ContractStatusCompleted
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()
	contracts.On("Update", mock.Anything, contract).Return(nil).Once()

	worker := &models.User{ID: contract.WorkerID, Rating: models.UserRating{Average: 4, Count: 1}}
	done := make(chan struct{})
	users.On("GetByID", mock.Anything, contract.WorkerID).Return(worker, nil).Once()
	users.On("Update", mock.Anything, worker).Run(func(args mock.Arguments) {
		close(done)
	}).Return(nil).Once()

	updated, err := svc.RateContract(context.Background(), contract.ID, contract.EmployerID, 5, "Отличная работа")
	require.NoError(t, err)
	require.NotNil(t, updated.Ratings.EmployerRating)
	assert.Equal(t, 5, updated.Ratings.EmployerRating.Rating)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("рейтинг пользователя не был обновлён")
	}
	assert.Equal(t, 2, worker.Rating.Count)
	assert.InDelta(t, 4.5, worker.Rating.Average, 0.001)
}

func TestContractService_RateContract_InvalidRating(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contract.Status = models.ContractStatusCompleted
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)

	_, err := svc.RateContract(context.Background(), contract.ID, contract.EmployerID, 6, "")
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
}

func TestContractService_SetStatus_InvalidTransition(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contract.Status = models.ContractStatusCompleted
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()

	_, err := svc.SetStatus(context.Background(), contract.ID, contract.EmployerID, models.ContractStatusActive)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
}

func TestContractService_SubmitDeliverable_OnlyWorker(t *testing.T) {
	contracts := new(mockContractRepo)
	svc := NewContractService(contracts, new(mockUserRepo))

	contract := activeContract(uuid.New(), uuid.New())
	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil).Once()

	_, err := svc.SubmitDeliverable(context.Background(), contract.ID, contract.EmployerID, "Результат", "", "")
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
}
