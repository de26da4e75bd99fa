package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safetap/internal/models"
	"safetap/internal/repo"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// rank — порядок прямого движения по графу статусов.
var rank = map[string]int{
	models.StatusPending:    0,
	models.StatusAssigned:   1,
	models.StatusInProgress: 2,
	models.StatusCompleted:  3,
}

// CanTransition: вперёд по графу (без возвратов), completed — только
// из in_progress, cancelled — из любого нетерминального статуса.
// Из терминальных статусов выхода нет.
func CanTransition(old, next string) bool {
	if models.TerminalStatus(old) {
		return false
	}
	if next == models.StatusCancelled {
		return true
	}
	if next == models.StatusCompleted {
		return old == models.StatusInProgress
	}
	or, ok := rank[old]
	nr, nok := rank[next]
	return ok && nok && nr > or
}

// Store — контракт хранилища заявок; записи перехода атомарны.
type Store interface {
	OrderByID(ctx context.Context, id uint) (*models.WorkOrder, error)
	ListOrders(ctx context.Context, f repo.OrderFilter) ([]models.WorkOrder, error)
	CreateOrder(ctx context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *repo.AvailabilityChange) error
	ApplyTransition(ctx context.Context, o *models.WorkOrder, h *models.OrderHistory, avail *repo.AvailabilityChange) error
	DeleteOrder(ctx context.Context, id uint) error
	History(ctx context.Context, orderID uint) ([]models.OrderHistory, error)
	Stats(ctx context.Context) (*repo.OrderStats, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateInput — провалидированный вход создания заявки.
type CreateInput struct {
	CustomerID    uint
	AssigneeID    *uint
	Title         string
	Description   string
	Priority      string
	Division      string
	District      string
	Thana         string
	FullAddress   string
	ScheduledAt   *time.Time
	EstimatedCost *float64
	Attachments   []byte
	ActorID       *uint
}

// Create заводит заявку в pending (или сразу в assigned, если указан
// исполнитель), с первой записью журнала. Назначенный исполнитель
// помечается занятым — всё в одной транзакции хранилища.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.WorkOrder, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("workflow: title is required")
	}
	if in.CustomerID == 0 {
		return nil, fmt.Errorf("workflow: customer is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(in.Priority) {
		return nil, fmt.Errorf("workflow: unknown priority %q", in.Priority)
	}

	status := models.StatusPending
	var avail *repo.AvailabilityChange
	if in.AssigneeID != nil {
		status = models.StatusAssigned
		avail = &repo.AvailabilityChange{AccountID: *in.AssigneeID, Available: false}
	}

	order := &models.WorkOrder{
		CustomerID:    in.CustomerID,
		AssigneeID:    in.AssigneeID,
		Title:         in.Title,
		Description:   in.Description,
		Status:        status,
		Priority:      in.Priority,
		Division:      in.Division,
		District:      in.District,
		Thana:         in.Thana,
		FullAddress:   in.FullAddress,
		ScheduledAt:   in.ScheduledAt,
		EstimatedCost: in.EstimatedCost,
		Attachments:   in.Attachments,
	}
	hist := &models.OrderHistory{
		ActorID:   in.ActorID,
		OldStatus: "",
		NewStatus: status,
		Note:      "order created",
	}
	if err := s.store.CreateOrder(ctx, order, hist, avail); err != nil {
		return nil, err
	}
	return order, nil
}

// Transition переводит заявку в новый статус. Повтор текущего статуса —
// no-op: успех без новой записи журнала. Каждый действительный переход
// пишет ровно одну запись журнала; вход в completed ставит completed_at,
// освобождает исполнителя и засчитывает ему работу.
func (s *Service) Transition(ctx context.Context, orderID uint, newStatus string, actorID *uint, note string, newAssignee *uint) (*models.WorkOrder, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if newStatus == order.Status {
		return order, nil
	}
	if !knownStatus(newStatus) || !CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, newStatus)
	}

	old := order.Status
	order.Status = newStatus

	var avail *repo.AvailabilityChange
	switch newStatus {
	case models.StatusCompleted:
		now := s.now()
		order.CompletedAt = &now
		if order.AssigneeID != nil {
			avail = &repo.AvailabilityChange{AccountID: *order.AssigneeID, Available: true, IncCompleted: true}
		}
	case models.StatusAssigned, models.StatusInProgress:
		if newAssignee != nil {
			order.AssigneeID = newAssignee
			avail = &repo.AvailabilityChange{AccountID: *newAssignee, Available: false}
		}
	}

	hist := &models.OrderHistory{
		OrderID:   order.ID,
		ActorID:   actorID,
		OldStatus: old,
		NewStatus: newStatus,
		Note:      note,
	}
	if err := s.store.ApplyTransition(ctx, order, hist, avail); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.WorkOrder, error) {
	return s.store.OrderByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f repo.OrderFilter) ([]models.WorkOrder, error) {
	return s.store.ListOrders(ctx, f)
}

// Delete удаляет заявку вместе с журналом.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.store.DeleteOrder(ctx, id)
}

func (s *Service) History(ctx context.Context, orderID uint) ([]models.OrderHistory, error) {
	if _, err := s.store.OrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, orderID)
}

func (s *Service) Stats(ctx context.Context) (*repo.OrderStats, error) {
	return s.store.Stats(ctx)
}

func knownStatus(s string) bool {
	if s == models.StatusCancelled {
		return true
	}
	_, ok := rank[s]
	return ok
}
