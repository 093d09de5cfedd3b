package dto

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the request to update profile fields
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
}

// SkillRequest represents one skill entry
type SkillRequest struct {
	Name  string `json:"name" binding:"required"`
	Level string `json:"level" binding:"required"`
}

// SetSkillsRequest replaces the user's skill list
type SetSkillsRequest struct {
	Skills []SkillRequest `json:"skills" binding:"required"`
}

// CreateJobRequest represents the request to publish a job
type CreateJobRequest struct {
	Title       string                `json:"title" binding:"required"`
	Description string                `json:"description" binding:"required"`
	Category    string                `json:"category"`
	Skills      []SkillRequest        `json:"skills" binding:"required"`
	Budget      BudgetRequest         `json:"budget" binding:"required"`
	Duration    string                `json:"duration"`
	Location    string                `json:"location"`
	Tags        []string              `json:"tags"`
}

// BudgetRequest represents the job budget range
type BudgetRequest struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max" binding:"required"`
	Currency string  `json:"currency"`
}

// ApplyRequest represents a worker's application to a job
type ApplyRequest struct {
	Proposal  string  `json:"proposal" binding:"required"`
	BidAmount float64 `json:"bid_amount" binding:"required"`
	Duration  string  `json:"duration"`
}

// DecideApplicationRequest accepts or rejects an application
type DecideApplicationRequest struct {
	Status string `json:"status" binding:"required"`
}

// CloseJobRequest completes or cancels a job
type CloseJobRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateContractStatusRequest moves a contract to a new status
type UpdateContractStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddMilestoneRequest adds a milestone to a contract
type AddMilestoneRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" binding:"required"`
	DueDate     *string `json:"due_date"`
}

// UpdateMilestoneRequest changes a milestone status
type UpdateMilestoneRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitDeliverableRequest submits a work deliverable
type SubmitDeliverableRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
}

// ReviewDeliverableRequest approves or rejects a deliverable
type ReviewDeliverableRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}

// RaiseDisputeRequest opens a dispute on a contract
type RaiseDisputeRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// ResolveDisputeRequest closes a dispute with a resolution
type ResolveDisputeRequest struct {
	Resolution   string `json:"resolution" binding:"required"`
	TargetStatus string `json:"target_status" binding:"required"`
}

// RateContractRequest rates the other party of a contract
type RateContractRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}

// CreatePaymentOrderRequest creates a payment order in the gateway
type CreatePaymentOrderRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// VerifyPaymentRequest confirms a gateway payment
type VerifyPaymentRequest struct {
	OrderID     string  `json:"order_id" binding:"required"`
	PaymentID   string  `json:"payment_id" binding:"required"`
	Signature   string  `json:"signature" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	PaymentType string  `json:"payment_type" binding:"required"`
	Description string  `json:"description"`
}
