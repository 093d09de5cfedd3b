package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

// AwardContract создаёт контракт из принятого отклика. Вакансия к этому
// моменту уже должна быть в работе, отклик — принят. ID контракта передаётся
// снаружи: сервис фиксирует его в вакансии до записи самого контракта.
func AwardContract(contractID uuid.UUID, job *models.Job, app *models.Application, amount float64, duration string, now time.Time) (*models.Contract, error) {
	if app == nil || app.Status != models.ApplicationStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "контракт создаётся только из принятого отклика")
	}
	if job.Status != models.JobStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "вакансия должна быть в работе")
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма контракта должна быть положительной")
	}

	start := now
	return &models.Contract{
		ID:         contractID,
		JobID:      job.ID,
		EmployerID: job.EmployerID,
		WorkerID:   app.WorkerID,
		Terms: models.ContractTerms{
			Amount:   amount,
			Currency: job.Budget.Currency,
			Duration: duration,
		},
		Status:        models.ContractStatusDraft,
		PaymentStatus: models.PaymentStatusPending,
		StartDate:     &start,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// contractTransitions описывает обычные переходы статусов контракта.
// Статус disputed сюда намеренно не входит: в него контракт попадает
// только через RaiseDispute, а выходит только через ResolveDispute.
var contractTransitions = map[string][]string{
	models.ContractStatusDraft:  {models.ContractStatusActive, models.ContractStatusCancelled},
	models.ContractStatusActive: {models.ContractStatusPaused, models.ContractStatusCompleted, models.ContractStatusCancelled},
	models.ContractStatusPaused: {models.ContractStatusActive, models.ContractStatusCancelled},
}

// SetContractStatus выполняет обычный переход статуса контракта.
func SetContractStatus(contract *models.Contract, status string, now time.Time) error {
	if _, ok := models.ValidContractStatuses[status]; !ok {
		return apperror.New(apperror.ErrCodeValidation, "некорректный статус контракта")
	}
	if status == models.ContractStatusDisputed {
		return apperror.New(apperror.ErrCodeInvalidTransition, "статус disputed выставляется только через спор")
	}

	allowed := false
	for _, next := range contractTransitions[contract.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperror.New(apperror.ErrCodeInvalidTransition, "переход "+contract.Status+" → "+status+" не разрешён")
	}

	contract.Status = status
	if status == models.ContractStatusCompleted || status == models.ContractStatusCancelled {
		end := now
		contract.EndDate = &end
	}
	contract.UpdatedAt = now
	return nil
}

// AddMilestone добавляет этап со статусом pending. Сумма этапов намеренно
// не сверяется с суммой контракта.
func AddMilestone(contract *models.Contract, title, description string, amount float64, dueDate *time.Time, now time.Time) (*models.Milestone, error) {
	if title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название этапа не может быть пустым")
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма этапа должна быть положительной")
	}
	if contract.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "нельзя добавить этап в завершённый контракт")
	}

	contract.Terms.Milestones = append(contract.Terms.Milestones, models.Milestone{
		Title:       title,
		Description: description,
		Amount:      amount,
		DueDate:     dueDate,
		Status:      models.MilestoneStatusPending,
	})
	contract.UpdatedAt = now
	return &contract.Terms.Milestones[len(contract.Terms.Milestones)-1], nil
}

// SetMilestoneStatus меняет статус этапа по индексу. Порядок между этапами
// не навязывается, каждый этап движется независимо.
func SetMilestoneStatus(contract *models.Contract, index int, status string, now time.Time) error {
	if index < 0 || index >= len(contract.Terms.Milestones) {
		return apperror.ErrMilestoneNotFound
	}
	if _, ok := models.ValidMilestoneStatuses[status]; !ok {
		return apperror.New(apperror.ErrCodeValidation, "некорректный статус этапа")
	}
	contract.Terms.Milestones[index].Status = status
	contract.UpdatedAt = now
	return nil
}

// RecordPayment фиксирует подтверждённый платёж: внешняя проверка уже
// состоялась, поэтому платёж сразу получает статус completed. TotalPaid
// растёт монотонно, PaymentStatus пересчитывается по инварианту
// total ≥ amount → completed, 0 < total < amount → partial.
func RecordPayment(contract *models.Contract, amount float64, paymentType, transactionID, description string, now time.Time) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа должна быть положительной")
	}
	if _, ok := models.ValidPaymentTypes[paymentType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип платежа")
	}

	contract.Payments = append(contract.Payments, models.Payment{
		Amount:        amount,
		Type:          paymentType,
		Status:        models.PaymentStatusCompleted,
		TransactionID: transactionID,
		Description:   description,
		PaidAt:        now,
	})
	contract.TotalPaid += amount

	if contract.TotalPaid >= contract.Terms.Amount {
		contract.PaymentStatus = models.PaymentStatusCompleted
	} else if contract.TotalPaid > 0 {
		contract.PaymentStatus = models.PaymentStatusPartial
	}
	contract.UpdatedAt = now

	return &contract.Payments[len(contract.Payments)-1], nil
}

// SubmitDeliverable добавляет сданный исполнителем результат работы.
func SubmitDeliverable(contract *models.Contract, title, description, fileURL string, now time.Time) (*models.Deliverable, error) {
	if title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название результата не может быть пустым")
	}
	contract.Deliverables = append(contract.Deliverables, models.Deliverable{
		Title:       title,
		Description: description,
		FileURL:     fileURL,
		Status:      models.DeliverableStatusSubmitted,
		SubmittedAt: now,
	})
	contract.UpdatedAt = now
	return &contract.Deliverables[len(contract.Deliverables)-1], nil
}

// ReviewDeliverable принимает или отклоняет результат работы.
func ReviewDeliverable(contract *models.Contract, index int, approve bool, feedback string, now time.Time) error {
	if index < 0 || index >= len(contract.Deliverables) {
		return apperror.New(apperror.ErrCodeNotFound, "результат работы не найден")
	}
	d := &contract.Deliverables[index]
	if d.Status != models.DeliverableStatusSubmitted {
		return apperror.New(apperror.ErrCodeInvalidTransition, "результат уже рассмотрен")
	}
	if approve {
		d.Status = models.DeliverableStatusApproved
		approved := now
		d.ApprovedAt = &approved
	} else {
		d.Status = models.DeliverableStatusRejected
	}
	if feedback != "" {
		d.Feedback = &feedback
	}
	contract.UpdatedAt = now
	return nil
}

// RaiseDispute добавляет спор со статусом open и безусловно переводит
// контракт в disputed. Это жёсткое переопределение: спор можно поднять
// из любого статуса, включая completed.
func RaiseDispute(contract *models.Contract, raisedBy uuid.UUID, reason, description string, now time.Time) (*models.Dispute, error) {
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина спора не может быть пустой")
	}

	contract.Disputes = append(contract.Disputes, models.Dispute{
		RaisedBy:    raisedBy,
		Reason:      reason,
		Description: description,
		Status:      models.DisputeStatusOpen,
		CreatedAt:   now,
	})
	contract.Status = models.ContractStatusDisputed
	contract.UpdatedAt = now
	return &contract.Disputes[len(contract.Disputes)-1], nil
}

// ResolveDispute закрывает открытый спор и переводит контракт в явно
// указанный целевой статус. Новая операция: в исходной модели были поля
// resolution/resolvedAt, но перехода из disputed не существовало.
func ResolveDispute(contract *models.Contract, resolution string, targetStatus string, now time.Time) error {
	if contract.Status != models.ContractStatusDisputed {
		return apperror.New(apperror.ErrCodeInvalidTransition, "контракт не находится в споре")
	}
	if resolution == "" {
		return apperror.New(apperror.ErrCodeValidation, "решение по спору не может быть пустым")
	}
	switch targetStatus {
	case models.ContractStatusActive, models.ContractStatusCompleted, models.ContractStatusCancelled:
	default:
		return apperror.New(apperror.ErrCodeValidation, "некорректный целевой статус после спора")
	}

	dispute := contract.OpenDispute()
	if dispute == nil {
		return apperror.New(apperror.ErrCodeNotFound, "открытый спор не найден")
	}

	resolved := now
	dispute.Status = models.DisputeStatusResolved
	dispute.Resolution = &resolution
	dispute.ResolvedAt = &resolved

	contract.Status = targetStatus
	if targetStatus == models.ContractStatusCompleted || targetStatus == models.ContractStatusCancelled {
		end := now
		contract.EndDate = &end
	}
	contract.UpdatedAt = now
	return nil
}

// RateContract сохраняет оценку контракта одной из сторон. Повторная
// оценка той же стороной перезаписывает предыдущую. Агрегированный рейтинг
// пользователя эта операция не трогает.
func RateContract(contract *models.Contract, byUserID uuid.UUID, rating int, review string, now time.Time) error {
	if rating < 1 || rating > 5 {
		return apperror.New(apperror.ErrCodeValidation, "рейтинг должен быть от 1 до 5")
	}
	if !contract.IsParty(byUserID) {
		return apperror.ErrForbidden
	}

	entry := &models.PartyRating{Rating: rating, Review: review, RatedAt: now}
	if byUserID == contract.EmployerID {
		contract.Ratings.EmployerRating = entry
	} else {
		contract.Ratings.WorkerRating = entry
	}
	contract.UpdatedAt = now
	return nil
}
