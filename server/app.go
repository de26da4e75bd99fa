package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safetap/config"
	"safetap/internal/admin"
	"safetap/internal/api"
	"safetap/internal/auth"
	"safetap/internal/controller"
	"safetap/internal/db"
	"safetap/internal/health"
	"safetap/internal/identity"
	"safetap/internal/logs"
	"safetap/internal/middleware"
	"safetap/internal/models"
	"safetap/internal/notify"
	"safetap/internal/repo"
	"safetap/internal/support"
	"safetap/internal/workflow"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server
	sweeper    *controller.Sweeper

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d

	if err := a.db.AutoMigrate(
		&models.Account{},
		&models.IdentityLink{},
		&models.Profile{},
		&models.WorkOrder{},
		&models.OrderHistory{},
	); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	/* 3) Хранилища и сервисы */
	accounts := repo.NewAccountStore(a.db)
	orders := repo.NewOrderStore(a.db)

	artifacts := support.NewGenerator(accounts, a.cfg.Support.BaseURL)
	tokens := auth.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	verifier := auth.NewVerifier(accounts, tokens)
	idTokens := auth.NewIDTokenVerifier(auth.IDTokenConfig{ProjectID: a.cfg.Firebase.ProjectID})
	resolver := identity.NewResolver(accounts, artifacts)
	registrar := identity.NewRegistrar(accounts, artifacts)
	workflowSvc := workflow.NewService(orders)

	var mailer notify.Mailer = notify.LogMailer{}
	if a.cfg.SMTP.Host != "" {
		m, merr := notify.NewSMTPMailer(a.cfg.SMTP.Host, a.cfg.SMTP.Port, a.cfg.SMTP.User, a.cfg.SMTP.Pass, a.cfg.SMTP.From)
		if merr != nil {
			log.Fatalf("smtp client failed: %v", merr)
		}
		mailer = m
	}
	notifier := notify.NewNotifier(mailer, notify.LogSMSSender{}, a.cfg.Support.FrontURL)

	if idTokens.Available() {
		logs.Logger.Infof("federated login enabled for project %s", a.cfg.Firebase.ProjectID)
	} else {
		logs.Logger.Warn("federated login disabled: firebase.project_id is empty")
	}

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 5) Health */
	health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz

	/* 6) API */
	h := api.NewHandler(verifier, resolver, registrar, idTokens, tokens, accounts, workflowSvc, artifacts, notifier)
	api.RegisterRoutes(a.Router, h, tokens)

	/* 7) Админ-панель (выключена без учётных данных) */
	if a.cfg.Admin.User != "" && a.cfg.Admin.Pass != "" {
		admin.Attach(a.Router, admin.Dependencies{
			DB:     a.db,
			Orders: workflowSvc,
			User:   a.cfg.Admin.User,
			Pass:   a.cfg.Admin.Pass,
		})
		logs.Logger.Info("admin panel enabled at /admin")
	}

	/* 8) Фоновая уборка */
	a.sweeper = controller.NewSweeper(orders, a.cfg.Maintenance.SweepInterval)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	if a.sweeper != nil {
		go a.sweeper.Run(a.ctx)
	}

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
