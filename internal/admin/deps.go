package admin

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"safetap/internal/workflow"
)

type Dependencies struct {
	DB     *gorm.DB
	Orders *workflow.Service
	User   string
	Pass   string
}

func Attach(r *mux.Router, d Dependencies) {
	h := &Handler{d: d, t: parseTemplates()}
	sub := r.PathPrefix("/admin").Subrouter()
	sub.Use(basicAuth(d.User, d.Pass))

	// pages
	sub.HandleFunc("", h.redirect("/admin/orders")).Methods("GET")
	sub.HandleFunc("/", h.redirect("/admin/orders")).Methods("GET")
	sub.HandleFunc("/orders", h.OrdersList).Methods("GET")
	sub.HandleFunc("/orders/{id:[0-9]+}", h.OrderDetail).Methods("GET")
	sub.HandleFunc("/stats", h.StatsPage).Methods("GET")
	sub.HandleFunc("/technicians", h.TechniciansPage).Methods("GET")

	// api (redirect back)
	sub.HandleFunc("/api/orders/{id:[0-9]+}/status", h.APIOrderTransition).Methods("POST")
	sub.HandleFunc("/api/orders/{id:[0-9]+}/delete", h.APIOrderDelete).Methods("POST")

	// static (very small)
	sub.HandleFunc("/static/style.css", serveCSS).Methods("GET")
}

// basicAuth закрывает панель парой логин/пароль из конфига.
func basicAuth(user, pass string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="safetap admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
