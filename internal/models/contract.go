package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract описывает контракт между работодателем и исполнителем.
// Этапы, платежи, результаты и споры встроены в агрегат и не существуют
// отдельно от него. JobID, EmployerID и WorkerID неизменяемы после создания.
type Contract struct {
	ID            uuid.UUID       `json:"id"`
	JobID         uuid.UUID       `json:"job_id"`
	EmployerID    uuid.UUID       `json:"employer_id"`
	WorkerID      uuid.UUID       `json:"worker_id"`
	Terms         ContractTerms   `json:"terms"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalPaid     float64         `json:"total_paid"`
	Payments      []Payment       `json:"payments,omitempty"`
	Deliverables  []Deliverable   `json:"deliverables,omitempty"`
	Disputes      []Dispute       `json:"disputes,omitempty"`
	Ratings       ContractRatings `json:"ratings"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Version int64 `json:"-"`
}

// ContractTerms условия контракта.
type ContractTerms struct {
	Amount     float64     `json:"amount"`
	Currency   string      `json:"currency"`
	Duration   string      `json:"duration,omitempty"`
	Milestones []Milestone `json:"milestones,omitempty"`
}

// Milestone этап работы с привязанной суммой.
type Milestone struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Amount      float64    `json:"amount"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
}

// Payment подтверждённый платёж по контракту.
type Payment struct {
	Amount        float64   `json:"amount"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

// Deliverable результат работы, сданный исполнителем.
type Deliverable struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	FileURL     string     `json:"file_url,omitempty"`
	Status      string     `json:"status"`
	Feedback    *string    `json:"feedback,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// Dispute спор по контракту.
type Dispute struct {
	RaisedBy    uuid.UUID  `json:"raised_by"`
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Resolution  *string    `json:"resolution,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// PartyRating оценка контракта одной из сторон.
type PartyRating struct {
	Rating  int       `json:"rating"`
	Review  string    `json:"review,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// ContractRatings оценки контракта обеими сторонами.
type ContractRatings struct {
	EmployerRating *PartyRating `json:"employer_rating,omitempty"`
	WorkerRating   *PartyRating `json:"worker_rating,omitempty"`
}

// IsParty сообщает, является ли пользователь стороной контракта.
func (c *Contract) IsParty(userID uuid.UUID) bool {
	return c.EmployerID == userID || c.WorkerID == userID
}

// IsTerminal сообщает, находится ли контракт в конечном статусе.
func (c *Contract) IsTerminal() bool {
	return c.Status == ContractStatusCompleted || c.Status == ContractStatusCancelled
}

// OpenDispute возвращает открытый спор, если он есть.
func (c *Contract) OpenDispute() *Dispute {
	for i := range c.Disputes {
		if c.Disputes[i].Status == DisputeStatusOpen || c.Disputes[i].Status == DisputeStatusUnderReview {
			return &c.Disputes[i]
		}
	}
	return nil
}
