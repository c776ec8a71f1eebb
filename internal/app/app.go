package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"dummyshop/storefront/internal/account"
	"dummyshop/storefront/internal/audit"
	"dummyshop/storefront/internal/cart"
	"dummyshop/storefront/internal/catalog"
	"dummyshop/storefront/internal/config"
	"dummyshop/storefront/internal/dummyjson"
	"dummyshop/storefront/internal/httpserver"
	"dummyshop/storefront/internal/session"
	"dummyshop/storefront/internal/storage"
)

// Services is the wired service graph shared by the gateway and the CLI.
type Services struct {
	Store    storage.Store
	Session  *session.Manager
	Remote   *dummyjson.Client
	Accounts *account.Service
	Catalog  *catalog.Service
	Feeds    *catalog.Feeds
	Cart     *cart.Service
	Audit    *audit.Logger
}

// NewServices opens storage, restores the persisted session and wires every
// service on top of them.
func NewServices(ctx context.Context, cfg config.Config, log *zap.Logger) (*Services, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	sess, err := session.NewManager(store, cfg.SessionKey, log.Named("session"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	if err := sess.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	remote := dummyjson.NewClient(&http.Client{Timeout: cfg.API.Timeout}, cfg.APIBaseURL())
	auditLogger := audit.NewLogger(cfg.AuditLogFile)
	catalogSvc := catalog.NewService(remote, log.Named("catalog"))

	return &Services{
		Store:    store,
		Session:  sess,
		Remote:   remote,
		Accounts: account.NewService(remote, sess, auditLogger, log.Named("account")),
		Catalog:  catalogSvc,
		Feeds:    catalog.NewFeeds(catalogSvc, cfg.FeedIdleTimeout),
		Cart:     cart.NewService(remote, sess, auditLogger, log.Named("cart")),
		Audit:    auditLogger,
	}, nil
}

func (s *Services) Close() error {
	return s.Store.Close()
}

type App struct {
	cfg      config.Config
	log      *zap.Logger
	services *Services
	server   *httpserver.Server
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	services, err := NewServices(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Session:  services.Session,
		Accounts: services.Accounts,
		Catalog:  services.Catalog,
		Feeds:    services.Feeds,
		Cart:     services.Cart,
		Log:      log.Named("http"),
	})

	return &App{
		cfg:      cfg,
		log:      log,
		services: services,
		server:   server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.services.Close(); err != nil {
			a.log.Warn("close storage", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting",
			zap.String("addr", a.cfg.HTTP.Addr),
			zap.String("storage_backend", a.cfg.Storage.Backend),
			zap.String("api_base_url", a.cfg.API.BaseURL),
			zap.Stringer("session", a.services.Session.State()))
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
