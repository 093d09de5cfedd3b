package models

// JobStatus константы статусов вакансий
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in-progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// ApplicationStatus константы статусов откликов
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// ContractStatus константы статусов контрактов
const (
	ContractStatusDraft     = "draft"
	ContractStatusActive    = "active"
	ContractStatusPaused    = "paused"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
	ContractStatusDisputed  = "disputed"
)

// PaymentStatus производный статус оплаты контракта
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPartial   = "partial"
	PaymentStatusCompleted = "completed"
)

// MilestoneStatus константы статусов этапов
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in-progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusApproved   = "approved"
)

// DeliverableStatus константы статусов результатов работы
const (
	DeliverableStatusSubmitted = "submitted"
	DeliverableStatusApproved  = "approved"
	DeliverableStatusRejected  = "rejected"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusClosed      = "closed"
)

// PaymentType типы платежей по контракту
const (
	PaymentTypeMilestone = "milestone"
	PaymentTypeFinal     = "final"
	PaymentTypeBonus     = "bonus"
)

// WalletTransactionType типы операций по кошельку
const (
	WalletTransactionCredit = "credit"
	WalletTransactionDebit  = "debit"
)

// Роли пользователей
const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
)

// SkillLevel уровни владения навыком
const (
	SkillLevelBeginner     = "beginner"
	SkillLevelIntermediate = "intermediate"
	SkillLevelAdvanced     = "advanced"
	SkillLevelExpert       = "expert"
)

// ValidJobStatuses список валидных статусов вакансий
var ValidJobStatuses = map[string]struct{}{
	JobStatusOpen:       {},
	JobStatusInProgress: {},
	JobStatusCompleted:  {},
	JobStatusCancelled:  {},
}

// ValidApplicationStatuses список валидных статусов откликов
var ValidApplicationStatuses = map[string]struct{}{
	ApplicationStatusPending:   {},
	ApplicationStatusAccepted:  {},
	ApplicationStatusRejected:  {},
	ApplicationStatusWithdrawn: {},
}

// ValidContractStatuses список валидных статусов контрактов
var ValidContractStatuses = map[string]struct{}{
	ContractStatusDraft:     {},
	ContractStatusActive:    {},
	ContractStatusPaused:    {},
	ContractStatusCompleted: {},
	ContractStatusCancelled: {},
	ContractStatusDisputed:  {},
}

// ValidMilestoneStatuses список валидных статусов этапов
var ValidMilestoneStatuses = map[string]struct{}{
	MilestoneStatusPending:    {},
	MilestoneStatusInProgress: {},
	MilestoneStatusCompleted:  {},
	MilestoneStatusApproved:   {},
}

// ValidSkillLevels список валидных уровней навыков
var ValidSkillLevels = map[string]struct{}{
	SkillLevelBeginner:     {},
	SkillLevelIntermediate: {},
	SkillLevelAdvanced:     {},
	SkillLevelExpert:       {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleWorker:   {},
	RoleEmployer: {},
}

// ValidPaymentTypes список валидных типов платежей
var ValidPaymentTypes = map[string]struct{}{
	PaymentTypeMilestone: {},
	PaymentTypeFinal:     {},
	PaymentTypeBonus:     {},
}
