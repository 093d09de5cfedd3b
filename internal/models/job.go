package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job описывает вакансию работодателя вместе со встроенными откликами.
// Агрегат хранится одним документом, отклики живут только внутри него.
type Job struct {
	ID               uuid.UUID          `json:"id"`
	EmployerID       uuid.UUID          `json:"employer_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Category         string             `json:"category,omitempty"`
	Skills           []SkillRequirement `json:"skills"`
	Budget           Budget             `json:"budget"`
	Duration         string             `json:"duration,omitempty"`
	Location         string             `json:"location,omitempty"`
	Status           string             `json:"status"`
	Applications     []Application      `json:"applications,omitempty"`
	SelectedWorkerID *uuid.UUID         `json:"selected_worker_id,omitempty"`
	ContractID       *uuid.UUID         `json:"contract_id,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	IsActive         bool               `json:"is_active"`
	Views            int                `json:"views"`
	ApplicationsCount int               `json:"applications_count"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	Version int64 `json:"-"`
}

// SkillRequirement требуемый навык вакансии.
type SkillRequirement struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// Budget бюджет вакансии, min всегда не больше max.
type Budget struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Application отклик исполнителя на вакансию. Живёт внутри Job,
// один исполнитель может иметь не более одного не отозванного отклика.
type Application struct {
	WorkerID  uuid.UUID `json:"worker_id"`
	Proposal  string    `json:"proposal"`
	BidAmount float64   `json:"bid_amount"`
	Duration  string    `json:"duration,omitempty"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"applied_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplicationByWorker возвращает последний не отозванный отклик исполнителя.
func (j *Job) ApplicationByWorker(workerID uuid.UUID) *Application {
	for i := range j.Applications {
		if j.Applications[i].WorkerID == workerID && j.Applications[i].Status != ApplicationStatusWithdrawn {
			return &j.Applications[i]
		}
	}
	return nil
}

// AcceptedApplication возвращает принятый отклик, если он есть.
func (j *Job) AcceptedApplication() *Application {
	for i := range j.Applications {
		if j.Applications[i].Status == ApplicationStatusAccepted {
			return &j.Applications[i]
		}
	}
	return nil
}

// SkillNames возвращает имена требуемых навыков в нижнем регистре.
func (j *Job) SkillNames() []string {
	names := make([]string, 0, len(j.Skills))
	for _, s := range j.Skills {
		names = append(names, strings.ToLower(s.Name))
	}
	return names
}
