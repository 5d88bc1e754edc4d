package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/catalog"
	"github.com/shrimpsizemoose/coursereg/internal/identity"
	"github.com/shrimpsizemoose/coursereg/internal/idgen"
	"github.com/shrimpsizemoose/coursereg/internal/registration"
	"github.com/shrimpsizemoose/coursereg/internal/reporting"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

type Service struct {
	Config   *Config
	Store    store.Store
	IDs      *idgen.Generator
	Accounts *identity.Registry
	Catalog  *catalog.Catalog
	Engine   *registration.Engine
	Views    *reporting.Views
	Auth     *Auth
}

// NewService builds the full service for the HTTP server, sessions included.
func NewService(configPath string) (*Service, error) {
	service, err := NewLocalService(configPath)
	if err != nil {
		return nil, err
	}

	auth, err := NewAuth(service.Config, service.Accounts)
	if err != nil {
		service.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}
	service.Auth = auth

	return service, nil
}

// NewLocalService builds the service without sessions, for tools that run
// with direct access to the store and never authenticate callers.
func NewLocalService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.DBConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	service := NewServiceWithStore(config, store)
	if err := service.SeedAdmin(context.Background()); err != nil {
		service.Close()
		return nil, err
	}

	return service, nil
}

// NewServiceWithStore wires the core over an open store. Auth is left
// disabled until replaced.
func NewServiceWithStore(config *Config, s store.Store) *Service {
	ids := idgen.New(config.IDs.Prefix, config.IDs.SequenceStart)
	return &Service{
		Config:   config,
		Store:    s,
		IDs:      ids,
		Accounts: identity.NewRegistry(s),
		Catalog:  catalog.New(s, ids),
		Engine:   registration.NewEngine(s, ids, config.Registration),
		Views:    reporting.NewViews(s),
		Auth:     &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader},
	}
}

// SeedAdmin creates the default admin account on an empty install.
func (s *Service) SeedAdmin(ctx context.Context) error {
	if s.Config.Admin.DefaultID == "" {
		return nil
	}
	created, err := s.Accounts.SeedAdmin(ctx, s.Config.Admin.DefaultID, s.Config.Admin.DefaultPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		logger.Info.Printf("Created default admin account %s", s.Config.Admin.DefaultID)
	}
	return nil
}

// CurrentSequence returns the last id counter value handed out.
func (s *Service) CurrentSequence(ctx context.Context) (int64, error) {
	return s.IDs.Current(ctx, s.Store)
}

// SetSequence moves the id counter forward so that value+1 is issued next.
func (s *Service) SetSequence(ctx context.Context, value int64) error {
	return s.Store.InTx(ctx, func(q store.Queries) error {
		return s.IDs.Set(ctx, q, value)
	})
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
