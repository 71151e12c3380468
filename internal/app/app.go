package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/saveclarify/internal/adapters/httpapi"
	sqliteadapter "github.com/atvirokodosprendimai/saveclarify/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/saveclarify/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/usecase"
	"github.com/atvirokodosprendimai/saveclarify/migrations"
)

type Config struct {
	Addr             string
	DBPath           string
	Env              string
	BootstrapAPIKey  string
	BootstrapKeyName string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewLogger returns a development logger for an empty or "development" env
// and a production logger tagged with env otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction(zap.Fields(
		zap.String("env", env),
		zap.String("service", "saveclarify"),
	))
}

func NewServer(ctx context.Context, cfg Config, logger *zap.Logger) (*http.Server, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gormsqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(ctx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := sqliteadapter.NewShipmentStore(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)

	saveService := usecase.NewSaveService(logger)
	shipmentService := usecase.NewShipmentService(store, saveService)
	authService := usecase.NewAuthService(apiKeyRepo)
	payloads, err := usecase.NewPayloadValidator(usecase.ShipmentDocumentSchema)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if cfg.BootstrapAPIKey != "" {
		name := cfg.BootstrapKeyName
		if name == "" {
			name = "bootstrap"
		}
		if _, err := authService.Register(ctx, cfg.BootstrapAPIKey, name); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
		logger.Info("bootstrap api key registered", zap.String("name", name))
	}

	handler := httpapi.NewHandler(shipmentService, payloads, authService, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	return server, resourceCloser{closers: []io.Closer{db}}, nil
}
