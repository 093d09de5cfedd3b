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

func awardedContract(t *testing.T, amount float64) *models.Contract {
	t.Helper()

	job, err := NewJob(uuid.New(), validJobSpec(), time.Now())
	require.NoError(t, err)
	workerID := uuid.New()
	_, err = Apply(job, workerID, "отклик", amount, "", time.Now())
	require.NoError(t, err)

	contractID := uuid.New()
	app, err := Accept(job, workerID, contractID, time.Now())
	require.NoError(t, err)

	contract, err := AwardContract(contractID, job, app, amount, "monthly", time.Now())
	require.NoError(t, err)
	return contract
}

func TestAwardContract_Success(t *testing.T) {
	contract := awardedContract(t, 1000)

	assert.Equal(t, models.ContractStatusDraft, contract.Status)
	assert.Equal(t, models.PaymentStatusPending, contract.PaymentStatus)
	assert.Empty(t, contract.Terms.Milestones)
	assert.Empty(t, contract.Payments)
	assert.Equal(t, float64(1000), contract.Terms.Amount)
}

func TestAwardContract_RequiresAcceptedApplication(t *testing.T) {
	job, err := NewJob(uuid.New(), validJobSpec(), time.Now())
	require.NoError(t, err)
	app, err := Apply(job, uuid.New(), "отклик", 500, "", time.Now())
	require.NoError(t, err)
	job.Status = models.JobStatusInProgress

	_, err = AwardContract(uuid.New(), job, app, 500, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
}

func TestRecordPayment_AdditiveAndMonotonic(t *testing.T) {
	contract := awardedContract(t, 1000)

	_, err := RecordPayment(contract, 300, models.PaymentTypeMilestone, "tx-1", "этап 1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, float64(300), contract.TotalPaid)
	assert.Equal(t, models.PaymentStatusPartial, contract.PaymentStatus)

	_, err = RecordPayment(contract, 400, models.PaymentTypeMilestone, "tx-2", "этап 2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, float64(700), contract.TotalPaid)
	assert.Equal(t, models.PaymentStatusPartial, contract.PaymentStatus)

	_, err = RecordPayment(contract, 300, models.PaymentTypeFinal, "tx-3", "финальный платёж", time.Now())
	require.NoError(t, err)
	assert.Equal(t, float64(1000), contract.TotalPaid)
	assert.Equal(t, models.PaymentStatusCompleted, contract.PaymentStatus)

	// Бонус сверх суммы контракта не откатывает статус назад.
	_, err = RecordPayment(contract, 100, models.PaymentTypeBonus, "tx-4", "бонус", time.Now())
	require.NoError(t, err)
	assert.Equal(t, float64(1100), contract.TotalPaid)
	assert.Equal(t, models.PaymentStatusCompleted, contract.PaymentStatus)
	assert.Len(t, contract.Payments, 4)
}

func TestRecordPayment_InvalidAmount(t *testing.T) {
	contract := awardedContract(t, 1000)

	_, err := RecordPayment(contract, 0, models.PaymentTypeMilestone, "tx", "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))
	assert.Equal(t, float64(0), contract.TotalPaid)
	assert.Equal(t, models.PaymentStatusPending, contract.PaymentStatus)
}

func TestAddMilestone_NoSumValidation(t *testing.T) {
	contract := awardedContract(t, 1000)

	// Сумма этапов может превышать сумму контракта, это осознанная нестрогость.
	_, err := AddMilestone(contract, "этап 1", "", 800, nil, time.Now())
	require.NoError(t, err)
	_, err = AddMilestone(contract, "этап 2", "", 800, nil, time.Now())
	require.NoError(t, err)
	assert.Len(t, contract.Terms.Milestones, 2)
}

func TestSetMilestoneStatus_OutOfRange(t *testing.T) {
	contract := awardedContract(t, 1000)
	_, err := AddMilestone(contract, "этап", "", 500, nil, time.Now())
	require.NoError(t, err)

	err = SetMilestoneStatus(contract, 5, models.MilestoneStatusCompleted, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeNotFound, apperror.Code(err))

	err = SetMilestoneStatus(contract, -1, models.MilestoneStatusCompleted, time.Now())
	require.Error(t, err)
}

func TestSetMilestoneStatus_NoOrderingEnforced(t *testing.T) {
	contract := awardedContract(t, 1000)
	_, err := AddMilestone(contract, "этап 1", "", 500, nil, time.Now())
	require.NoError(t, err)
	_, err = AddMilestone(contract, "этап 2", "", 500, nil, time.Now())
	require.NoError(t, err)

	// Второй этап можно завершить раньше первого.
	require.NoError(t, SetMilestoneStatus(contract, 1, models.MilestoneStatusApproved, time.Now()))
	assert.Equal(t, models.MilestoneStatusPending, contract.Terms.Milestones[0].Status)
}

func TestSetContractStatus_Transitions(t *testing.T) {
	cases := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"draft_to_active", models.ContractStatusDraft, models.ContractStatusActive, false},
		{"active_to_paused", models.ContractStatusActive, models.ContractStatusPaused, false},
		{"paused_to_active", models.ContractStatusPaused, models.ContractStatusActive, false},
		{"active_to_completed", models.ContractStatusActive, models.ContractStatusCompleted, false},
		{"draft_to_completed", models.ContractStatusDraft, models.ContractStatusCompleted, true},
		{"completed_is_terminal", models.ContractStatusCompleted, models.ContractStatusActive, true},
		{"disputed_only_via_dispute", models.ContractStatusActive, models.ContractStatusDisputed, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			contract := awardedContract(t, 1000)
			contract.Status = tc.from

			err := SetContractStatus(contract, tc.to, time.Now())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.to, contract.Status)
			}
		})
	}
}

func TestRaiseDispute_HardOverrideOnCompleted(t *testing.T) {
	contract := awardedContract(t, 1000)
	contract.Status = models.ContractStatusCompleted

	dispute, err := RaiseDispute(contract, contract.WorkerID, "работа не оплачена", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, models.ContractStatusDisputed, contract.Status)
}

func TestResolveDispute_ClosesDisputeAndSetsTarget(t *testing.T) {
	contract := awardedContract(t, 1000)
	contract.Status = models.ContractStatusActive
	_, err := RaiseDispute(contract, contract.EmployerID, "сорваны сроки", "", time.Now())
	require.NoError(t, err)

	err = ResolveDispute(contract, "стороны договорились продолжить", models.ContractStatusActive, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, contract.Status)

	resolved := contract.Disputes[0]
	assert.Equal(t, models.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestResolveDispute_NotDisputed(t *testing.T) {
	contract := awardedContract(t, 1000)

	err := ResolveDispute(contract, "решение", models.ContractStatusActive, time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
}

func TestRateContract_BoundsAndOverwrite(t *testing.T) {
	contract := awardedContract(t, 1000)

	err := RateContract(contract, contract.EmployerID, 6, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.Code(err))

	err = RateContract(contract, contract.EmployerID, 0, "", time.Now())
	require.Error(t, err)

	require.NoError(t, RateContract(contract, contract.EmployerID, 4, "хорошо", time.Now()))
	require.NotNil(t, contract.Ratings.EmployerRating)
	assert.Equal(t, 4, contract.Ratings.EmployerRating.Rating)

	// Повторная оценка той же стороной перезаписывает предыдущую.
	require.NoError(t, RateContract(contract, contract.EmployerID, 2, "передумал", time.Now()))
	assert.Equal(t, 2, contract.Ratings.EmployerRating.Rating)
	assert.Nil(t, contract.Ratings.WorkerRating)

	require.NoError(t, RateContract(contract, contract.WorkerID, 5, "", time.Now()))
	require.NotNil(t, contract.Ratings.WorkerRating)
	assert.Equal(t, 5, contract.Ratings.WorkerRating.Rating)
}

func TestRateContract_NotAParty(t *testing.T) {
	contract := awardedContract(t, 1000)

	err := RateContract(contract, uuid.New(), 5, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeForbidden, apperror.Code(err))
}

func TestSubmitAndReviewDeliverable(t *testing.T) {
	contract := awardedContract(t, 1000)

	d, err := SubmitDeliverable(contract, "макет", "первая версия", "https://files/1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.DeliverableStatusSubmitted, d.Status)

	require.NoError(t, ReviewDeliverable(contract, 0, true, "принято", time.Now()))
	assert.Equal(t, models.DeliverableStatusApproved, contract.Deliverables[0].Status)
	assert.NotNil(t, contract.Deliverables[0].ApprovedAt)

	err = ReviewDeliverable(contract, 0, false, "", time.Now())
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.Code(err))
}
