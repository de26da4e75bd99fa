package models

import (
	"time"

	"gorm.io/datatypes"
)

// Статусы заявки.
const (
	StatusPending    = "pending"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Приоритеты.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh || p == PriorityUrgent
}

func TerminalStatus(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// WorkOrder — сервисная заявка: клиент → назначение → выполнение.
type WorkOrder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerID uint     `gorm:"index;not null" json:"customer_id"`
	Customer   *Account `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	AssigneeID *uint    `gorm:"index" json:"assignee_id,omitempty"`
	Assignee   *Account `gorm:"foreignKey:AssigneeID" json:"-"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:20;not null;default:pending;index" json:"status"`
	Priority    string `gorm:"size:10;not null;default:medium" json:"priority"`

	// Локация (административное деление)
	Division    string `gorm:"size:100" json:"division"`
	District    string `gorm:"size:100" json:"district"`
	Thana       string `gorm:"size:100" json:"thana"`
	FullAddress string `gorm:"type:text" json:"full_address"`

	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	EstimatedCost *float64   `json:"estimated_cost,omitempty"`
	ActualCost    *float64   `json:"actual_cost,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	// URL-ы загруженных фото/видео по заявке.
	Attachments datatypes.JSON `json:"attachments,omitempty"`
}

// OrderHistory — журнал переходов статуса. Только добавление:
// записи не переписываются и не удаляются отдельно от заявки.
type OrderHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID   uint       `gorm:"index;not null" json:"order_id"`
	Order     *WorkOrder `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ActorID   *uint      `json:"actor_id,omitempty"`
	OldStatus string     `gorm:"size:20" json:"old_status"`
	NewStatus string     `gorm:"size:20" json:"new_status"`
	Note      string     `gorm:"type:text" json:"note"`
}
