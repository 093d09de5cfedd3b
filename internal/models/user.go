package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя платформы вместе со всеми вложенными
// данными (навыки, кошелёк, рейтинг). Агрегат хранится одним документом,
// PasswordHash лежит в отдельной колонке и в документ не попадает.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Phone        *string    `json:"phone,omitempty"`
	Bio          *string    `json:"bio,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Skills       []Skill    `json:"skills"`
	Wallet       Wallet     `json:"wallet"`
	Rating       UserRating `json:"rating"`
	IsVerified   bool       `json:"is_verified"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Version используется для оптимистичных блокировок на уровне хранилища.
	Version int64 `json:"-"`
}

// Skill описывает навык пользователя. Навыки уникальны по имени.
type Skill struct {
	Name              string     `json:"name"`
	Level             string     `json:"level,omitempty"`
	Certified         bool       `json:"certified"`
	CertificateHash   *string    `json:"certificate_hash,omitempty"`
	CertificationTxID *string    `json:"certification_tx_id,omitempty"`
	CertifiedAt       *time.Time `json:"certified_at,omitempty"`
}

// Wallet хранит баланс и историю операций пользователя.
type Wallet struct {
	Balance      float64             `json:"balance"`
	Transactions []WalletTransaction `json:"transactions,omitempty"`
}

// WalletTransaction одна операция по кошельку.
type WalletTransaction struct {
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserRating агрегированный рейтинг пользователя.
type UserRating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Session представляет сохранённую refresh-сессию пользователя.
// Сессии — единственные данные вне документа пользователя: они живут
// своим временем жизни и не участвуют в версионировании агрегата.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SkillByName возвращает навык по имени без учёта регистра.
func (u *User) SkillByName(name string) *Skill {
	for i := range u.Skills {
		if strings.EqualFold(u.Skills[i].Name, name) {
			return &u.Skills[i]
		}
	}
	return nil
}

// SkillNames возвращает имена навыков в нижнем регистре.
func (u *User) SkillNames() []string {
	names := make([]string, 0, len(u.Skills))
	for _, s := range u.Skills {
		names = append(names, strings.ToLower(s.Name))
	}
	return names
}

// Credit пополняет кошелёк и добавляет запись в историю операций.
func (u *User) Credit(amount float64, description, transactionID string, now time.Time) {
	u.Wallet.Balance += amount
	u.Wallet.Transactions = append(u.Wallet.Transactions, WalletTransaction{
		Type:          WalletTransactionCredit,
		Amount:        amount,
		Description:   description,
		TransactionID: transactionID,
		CreatedAt:     now,
	})
}

// ApplyRating добавляет одну оценку в агрегированный рейтинг.
// Операция намеренно не связана транзакционно с контрактом.
func (u *User) ApplyRating(rating int) {
	total := u.Rating.Average*float64(u.Rating.Count) + float64(rating)
	u.Rating.Count++
	u.Rating.Average = total / float64(u.Rating.Count)
}
