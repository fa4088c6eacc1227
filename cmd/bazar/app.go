package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/surajkumarsah0/bazar-frontend/internal/api"
	"github.com/surajkumarsah0/bazar-frontend/internal/cart"
	"github.com/surajkumarsah0/bazar-frontend/internal/checkout"
	"github.com/surajkumarsah0/bazar-frontend/internal/config"
	"github.com/surajkumarsah0/bazar-frontend/internal/session"
	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

var errAdminOnly = errors.New("admin access required")

// appはコマンドが共有する状態コンテナと部品
type app struct {
	cfg      config.Config
	log      *logrus.Logger
	store    storage.Store
	cart     *cart.Engine
	session  *session.Holder
	client   *api.Client
	checkout *checkout.Service
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// newAppは保存領域を開き、カートとセッションを復元する。
// 保存済みトークンがあればここでプロフィールを確認する。
func newApp(ctx context.Context, cfg config.Config, log *logrus.Logger) (*app, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}

	a := &app{cfg: cfg, log: log, store: store}

	a.cart = cart.New(store, log)
	if err := a.cart.Load(ctx); err != nil {
		log.WithError(err).Warn("stored cart could not be read, starting empty without saving")
	}

	// API client と session は互いを参照する
	a.client = api.NewFromConfig(cfg, api.TokenFunc(func() string {
		if a.session == nil {
			return ""
		}
		return a.session.Token()
	}), log)
	a.session = session.New(ctx, a.client, session.NewStorageCredentials(store, log), log)
	a.session.Bootstrap(ctx)

	a.checkout = checkout.NewService(a.cart, a.session, a.client, log)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) requireAdmin() error {
	if !a.session.IsAdmin() {
		return errAdminOnly
	}
	return nil
}

func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return checkout.ErrNotAuthenticated
	}
	return nil
}
