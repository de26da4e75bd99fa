package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"safetap/internal/auth"
	"safetap/internal/models"
)

// RegisterRoutes вешает API на /api/v1. Публичные маршруты — только
// аутентификация; всё остальное за Bearer-токеном.
func RegisterRoutes(r *mux.Router, h *Handler, tokens *auth.TokenIssuer) {
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// 1) Аутентификация (без токена)
	a := v1.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	a.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	a.HandleFunc("/firebase", h.FirebaseLogin).Methods(http.MethodPost)
	a.HandleFunc("/email/send", h.SendEmailToken).Methods(http.MethodPost)
	a.HandleFunc("/email/verify", h.VerifyEmail).Methods(http.MethodPost)
	a.HandleFunc("/phone/send", h.SendPhoneCode).Methods(http.MethodPost)
	a.HandleFunc("/phone/verify", h.VerifyPhoneCode).Methods(http.MethodPost)
	a.HandleFunc("/phone/login", h.VerifyPhoneCode).Methods(http.MethodPost)

	// 2) Защищённые маршруты
	p := v1.NewRoute().Subrouter()
	p.Use(auth.Middleware(tokens))
	p.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	p.HandleFunc("/auth/me", h.UpdateMe).Methods(http.MethodPut)
	p.HandleFunc("/technicians", h.Technicians).Methods(http.MethodGet)
	p.HandleFunc("/support/{id:[0-9]+}", h.SupportInfo).Methods(http.MethodGet)

	p.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	p.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	p.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods(http.MethodGet)
	p.HandleFunc("/orders/{id:[0-9]+}/status", h.TransitionOrder).Methods(http.MethodPost)
	p.HandleFunc("/orders/{id:[0-9]+}/history", h.OrderHistory).Methods(http.MethodGet)

	// 3) Только администратор
	adm := v1.NewRoute().Subrouter()
	adm.Use(auth.Middleware(tokens), auth.RequireRole(models.RoleAdmin))
	adm.HandleFunc("/orders/stats", h.OrderStats).Methods(http.MethodGet)
	adm.HandleFunc("/users/{id:[0-9]+}", h.UpdateUser).Methods(http.MethodPut)
	adm.HandleFunc("/orders/{id:[0-9]+}", h.DeleteOrder).Methods(http.MethodDelete)
	adm.HandleFunc("/support/{id:[0-9]+}/regenerate", h.RegenerateSupport).Methods(http.MethodPost)
}
