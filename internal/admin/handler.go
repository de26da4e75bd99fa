package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"safetap/internal/models"
)

type Handler struct {
	d Dependencies
	t pageTemplates // наборы шаблонов по страницам
}

func (h *Handler) redirect(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	t, ok := h.t[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ---------- Pages ----------

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	var rows []models.WorkOrder
	q := h.d.DB.Order("created_at desc").Limit(200)
	if s := strings.TrimSpace(r.URL.Query().Get("q")); s != "" {
		// LOWER + LIKE вместо ILIKE: работает и на postgres, и на mysql.
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(full_address) LIKE ?", like, like)
	}
	if st := r.URL.Query().Get("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	_ = q.Find(&rows).Error
	h.render(w, "orders_list.tmpl", map[string]any{
		"Title":  "Orders",
		"Rows":   rows,
		"Query":  r.URL.Query().Get("q"),
		"Status": r.URL.Query().Get("status"),
		"Statuses": []string{
			models.StatusPending, models.StatusAssigned, models.StatusInProgress,
			models.StatusCompleted, models.StatusCancelled,
		},
	})
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var order models.WorkOrder
	if err := h.d.DB.First(&order, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}

	var hist []models.OrderHistory
	_ = h.d.DB.Where("order_id = ?", order.ID).Order("created_at asc").Find(&hist).Error

	var customer, assignee models.Account
	_ = h.d.DB.First(&customer, order.CustomerID).Error
	if order.AssigneeID != nil {
		_ = h.d.DB.First(&assignee, *order.AssigneeID).Error
	}

	// свободные техники для назначения
	type TechRow struct {
		AccountID uint
		Username  string
	}
	var techs []TechRow
	_ = h.d.DB.Table("profiles").
		Select("profiles.account_id, accounts.username").
		Joins("JOIN accounts ON accounts.id = profiles.account_id").
		Where("profiles.role = ? AND profiles.available", models.RoleTechnician).
		Scan(&techs).Error

	h.render(w, "order_detail.tmpl", map[string]any{
		"Title":    "Order #" + strconv.Itoa(id),
		"Order":    order,
		"History":  hist,
		"Customer": customer,
		"Assignee": assignee,
		"Techs":    techs,
	})
}

func (h *Handler) StatsPage(w http.ResponseWriter, r *http.Request) {
	st, err := h.d.Orders.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "stats.tmpl", map[string]any{"Title": "Stats", "Stats": st})
}

func (h *Handler) TechniciansPage(w http.ResponseWriter, r *http.Request) {
	type Row struct {
		AccountID     uint
		Username      string
		Available     bool
		Rating        float64
		CompletedJobs int
		District      string
	}
	var rows []Row
	_ = h.d.DB.Table("profiles").
		Select("profiles.account_id, accounts.username, profiles.available, profiles.rating, profiles.completed_jobs, profiles.service_district as district").
		Joins("JOIN accounts ON accounts.id = profiles.account_id").
		Where("profiles.role = ?", models.RoleTechnician).
		Order("profiles.rating desc").
		Scan(&rows).Error
	h.render(w, "technicians.tmpl", map[string]any{"Title": "Technicians", "Rows": rows})
}

// ---------- API ----------

// Переходы идут через движок заявок: панель не обходит граф статусов.
func (h *Handler) APIOrderTransition(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var assignee *uint
	if v, err := strconv.ParseUint(r.FormValue("assignee_id"), 10, 64); err == nil && v > 0 {
		a := uint(v)
		assignee = &a
	}
	_, err := h.d.Orders.Transition(r.Context(), uint(id), r.FormValue("status"), nil, r.FormValue("note"), assignee)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/admin/orders/"+strconv.Itoa(id), http.StatusFound)
}

func (h *Handler) APIOrderDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := h.d.Orders.Delete(r.Context(), uint(id)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/orders", http.StatusFound)
}
