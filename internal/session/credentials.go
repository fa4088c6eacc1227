package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

// CredentialStoreはトークンの保管場所。Holderはこの interface だけに依存する。
type CredentialStore interface {
	// 保存されていなければ "" を返す
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

const credentialVersion = 1

type credentialEnvelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Token   string    `json:"token"`
}

// StorageCredentialsは storage.Store の bazar.token.v1 にトークンを置く。
type StorageCredentials struct {
	store storage.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewStorageCredentials(store storage.Store, log logrus.FieldLogger) *StorageCredentials {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StorageCredentials{
		store: store,
		log:   log.WithField("component", "credentials"),
		now:   time.Now,
	}
}

// Loadは壊れたデータ・別バージョンを「トークン無し」として消す。
func (c *StorageCredentials) Load(ctx context.Context) (string, error) {
	b, err := c.store.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var env credentialEnvelope
	if err := json.Unmarshal(b, &env); err != nil || env.Version != credentialVersion || env.Token == "" {
		c.log.WithField("version", env.Version).Warn("discarding persisted token")
		if delErr := c.store.Delete(ctx, storage.KeyToken); delErr != nil {
			c.log.WithError(delErr).Warn("failed to remove persisted token")
		}
		return "", nil
	}
	return env.Token, nil
}

func (c *StorageCredentials) Save(ctx context.Context, token string) error {
	b, err := json.Marshal(credentialEnvelope{
		Version: credentialVersion,
		SavedAt: c.now().UTC(),
		Token:   token,
	})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, storage.KeyToken, b)
}

func (c *StorageCredentials) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, storage.KeyToken)
}
