package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Роли профиля.
const (
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

func ValidRole(r string) bool {
	return r == RoleCustomer || r == RoleTechnician || r == RoleAdmin
}

// Account — локальная учётная запись. Мягкое удаление: в штатном
// режиме аккаунты не удаляются физически.
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        *string `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Username     string  `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Phone        *string `gorm:"uniqueIndex;size:20" json:"phone,omitempty"`
	PasswordHash []byte  `json:"-"`
	// PIN сравнивается как есть (решение продукта, не граница хеширования паролей).
	PIN       string `gorm:"size:10" json:"-"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`

	EmailVerified bool `json:"email_verified"`
	PhoneVerified bool `json:"phone_verified"`
}

// IdentityLink — привязка внешней учётки (федеративный провайдер) к Account.
// Единственный ключ соединения для повторных внешних входов.
type IdentityLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID  uint           `gorm:"uniqueIndex;not null" json:"account_id"`
	Account    *Account       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExternalID string         `gorm:"uniqueIndex;size:128;not null" json:"external_id"`
	Provider   string         `gorm:"size:64" json:"provider"`
	Claims     datatypes.JSON `json:"claims,omitempty"` // сырой payload утверждения
}

// Profile — сервисный профиль, один-к-одному с Account.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountID uint     `gorm:"uniqueIndex;not null" json:"account_id"`
	Account   *Account `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Role string `gorm:"size:20;not null;default:customer" json:"role"`

	ServiceDivision string `gorm:"size:100" json:"service_division"`
	ServiceDistrict string `gorm:"size:100" json:"service_district"`
	ServiceThana    string `gorm:"size:100" json:"service_thana"`
	Address         string `gorm:"size:255" json:"address"`

	Available     bool    `json:"available"`
	Rating        float64 `json:"rating"`
	CompletedJobs int     `json:"completed_jobs"`

	// Артефакты поддержки: ссылка + её QR (base64 PNG). Кэш, не криптография.
	SupportURL string `gorm:"size:255" json:"support_url"`
	QRCode     string `gorm:"type:text" json:"qr_code,omitempty"`

	// Одноразовые проверки: токен для email, код для телефона.
	EmailToken         string     `gorm:"size:64" json:"-"`
	PhoneCode          string     `gorm:"size:10" json:"-"`
	PhoneCodeExpiresAt *time.Time `json:"-"`
}
