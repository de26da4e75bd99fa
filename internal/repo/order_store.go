package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"safetap/internal/models"
)

type OrderStore struct{ db *gorm.DB }

func NewOrderStore(db *gorm.DB) *OrderStore { return &OrderStore{db: db} }

func (s *OrderStore) OrderByID(ctx context.Context, id uint) (*models.WorkOrder, error) {
	var o models.WorkOrder
	if err := s.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// OrderFilter — необязательные срезы списка заявок.
type OrderFilter struct {
	Status     string
	CustomerID uint
	AssigneeID uint
}

func (s *OrderStore) ListOrders(ctx context.Context, f OrderFilter) ([]models.WorkOrder, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.AssigneeID != 0 {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	var out []models.WorkOrder
	err := q.Find(&out).Error
	return out, err
}

// AvailabilityChange — изменение занятости исполнителя,
// применяемое в одной транзакции с переходом статуса.
type AvailabilityChange struct {
	AccountID    uint
	Available    bool
	IncCompleted bool // completed_jobs += 1
}

func (s *OrderStore) applyAvailability(tx *gorm.DB, ch *AvailabilityChange) error {
	if ch == nil {
		return nil
	}
	upd := map[string]any{"available": ch.Available}
	if ch.IncCompleted {
		upd["completed_jobs"] = gorm.Expr("completed_jobs + 1")
	}
	return tx.Model(&models.Profile{}).
		Where("account_id = ?", ch.AccountID).
		Updates(upd).Error
}

// CreateOrder пишет заявку, первую запись журнала и (если заявка
// сразу назначена) занятость исполнителя — атомарно.
func (s *OrderStore) CreateOrder(ctx context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *AvailabilityChange) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		h.OrderID = o.ID
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		return s.applyAvailability(tx, avail)
	})
	return translate(err)
}

// ApplyTransition сохраняет заявку с новым статусом, добавляет запись
// журнала и правит занятость исполнителя. Одна транзакция на переход.
func (s *OrderStore) ApplyTransition(ctx context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *AvailabilityChange) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(o).Error; err != nil {
			return err
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		return s.applyAvailability(tx, avail)
	})
	return translate(err)
}

// DeleteOrder удаляет заявку вместе с журналом (журнал не переживает
// свою заявку; нужен долговечный аудит — выгружайте до удаления).
func (s *OrderStore) DeleteOrder(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.WorkOrder{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("order_id = ?", id).Delete(&models.OrderHistory{}).Error
	})
	return translate(err)
}

func (s *OrderStore) History(ctx context.Context, orderID uint) ([]models.OrderHistory, error) {
	var out []models.OrderHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// OrderStats — сводка по заявкам и доступным исполнителям.
type OrderStats struct {
	Total                int64 `json:"total"`
	Pending              int64 `json:"pending"`
	Assigned             int64 `json:"assigned"`
	InProgress           int64 `json:"in_progress"`
	Completed            int64 `json:"completed"`
	Cancelled            int64 `json:"cancelled"`
	AvailableTechnicians int64 `json:"available_technicians"`
}

func (s *OrderStore) Stats(ctx context.Context) (*OrderStats, error) {
	db := s.db.WithContext(ctx)
	var st OrderStats
	if err := db.Model(&models.WorkOrder{}).Count(&st.Total).Error; err != nil {
		return nil, err
	}
	byStatus := map[string]*int64{
		models.StatusPending:    &st.Pending,
		models.StatusAssigned:   &st.Assigned,
		models.StatusInProgress: &st.InProgress,
		models.StatusCompleted:  &st.Completed,
		models.StatusCancelled:  &st.Cancelled,
	}
	for status, dst := range byStatus {
		if err := db.Model(&models.WorkOrder{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return nil, err
		}
	}
	err := db.Model(&models.Profile{}).
		Where("role = ? AND available", models.RoleTechnician).
		Count(&st.AvailableTechnicians).Error
	return &st, err
}

// -------- Фоновая уборка --------

// ClearExpiredPhoneCodes стирает протухшие одноразовые коды, которые
// так и не были предъявлены.
func (s *OrderStore) ClearExpiredPhoneCodes(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("phone_code <> '' AND phone_code_expires_at < ?", now).
		Updates(map[string]any{"phone_code": "", "phone_code_expires_at": nil})
	return res.RowsAffected, res.Error
}

// ReleaseIdleTechnicians возвращает доступность техникам, за которыми
// не числится ни одной открытой заявки. Страховка от дрейфа флага
// занятости после ручных правок в БД или незавершённых переходов.
func (s *OrderStore) ReleaseIdleTechnicians(ctx context.Context) (int64, error) {
	busy := s.db.WithContext(ctx).Model(&models.WorkOrder{}).
		Select("assignee_id").
		Where("assignee_id IS NOT NULL AND status IN ?", []string{models.StatusAssigned, models.StatusInProgress})
	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("role = ? AND NOT available AND account_id NOT IN (?)", models.RoleTechnician, busy).
		Update("available", true)
	return res.RowsAffected, res.Error
}
