package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"safetap/internal/auth"
	"safetap/internal/models"
	"safetap/internal/repo"
	"safetap/internal/workflow"
)

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// POST /api/v1/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.FromContext(r.Context())
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	customerID := sub.AccountID
	var assigneeID *uint
	if sub.Role == models.RoleAdmin {
		if req.CustomerID != 0 {
			customerID = req.CustomerID
		}
		assigneeID = req.AssigneeID
	}

	var attachments []byte
	if len(req.Attachments) > 0 {
		attachments, _ = json.Marshal(req.Attachments)
	}

	actor := sub.AccountID
	order, err := h.orders.Create(r.Context(), workflow.CreateInput{
		CustomerID:    customerID,
		AssigneeID:    assigneeID,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Division:      req.Division,
		District:      req.District,
		Thana:         req.Thana,
		FullAddress:   req.FullAddress,
		ScheduledAt:   req.ScheduledAt,
		EstimatedCost: req.EstimatedCost,
		Attachments:   attachments,
		ActorID:       &actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders — клиент видит свои, техник — назначенные ему,
// админ — все (с необязательными фильтрами).
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.FromContext(r.Context())
	f := repo.OrderFilter{Status: r.URL.Query().Get("status")}
	switch sub.Role {
	case models.RoleAdmin:
		if v, err := strconv.ParseUint(r.URL.Query().Get("customer_id"), 10, 64); err == nil {
			f.CustomerID = uint(v)
		}
		if v, err := strconv.ParseUint(r.URL.Query().Get("assignee_id"), 10, 64); err == nil {
			f.AssigneeID = uint(v)
		}
	case models.RoleTechnician:
		f.AssigneeID = sub.AccountID
	default:
		f.CustomerID = sub.AccountID
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid order id")
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.canSee(r, order) {
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "not your order", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, order)
}

// POST /api/v1/orders/{id}/status
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.FromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid order id")
		return
	}
	var req transitionRequest
	if err := decode(r, &req); err != nil || req.Status == "" {
		badRequest(w, "status is required")
		return
	}

	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.canTransition(sub, order, req.Status) {
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "transition not allowed for this role", nil)
		return
	}
	var assignee *uint
	if sub.Role == models.RoleAdmin {
		assignee = req.AssigneeID
	}

	actor := sub.AccountID
	updated, err := h.orders.Transition(r.Context(), id, req.Status, &actor, req.Note, assignee)
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, updated)
}

// GET /api/v1/orders/{id}/history
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid order id")
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.canSee(r, order) {
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", "not your order", nil)
		return
	}
	hist, err := h.orders.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, hist)
}

// DELETE /api/v1/orders/{id} — только admin; журнал уходит вместе
// с заявкой.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid order id")
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/orders/stats
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.orders.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) canSee(r *http.Request, order *models.WorkOrder) bool {
	sub, ok := auth.FromContext(r.Context())
	if !ok {
		return false
	}
	switch sub.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTechnician:
		return order.AssigneeID != nil && *order.AssigneeID == sub.AccountID
	default:
		return order.CustomerID == sub.AccountID
	}
}

// canTransition — политика ролей поверх графа статусов: админ — всё;
// техник ведёт свою заявку к завершению; клиент может отменить свою.
func (h *Handler) canTransition(sub auth.Subject, order *models.WorkOrder, newStatus string) bool {
	switch sub.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTechnician:
		if order.AssigneeID == nil || *order.AssigneeID != sub.AccountID {
			return false
		}
		return newStatus == models.StatusInProgress || newStatus == models.StatusCompleted
	default:
		return order.CustomerID == sub.AccountID && newStatus == models.StatusCancelled
	}
}
