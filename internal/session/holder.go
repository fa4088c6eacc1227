package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// APIが token なしで成功を返した
var ErrEmptyToken = errors.New("session: backend returned no token")

type State int

const (
	StateAnonymous State = iota
	// 起動時のプロフィール確認中
	StateResolving
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthAPIはHolderが使う認証API
type AuthAPI interface {
	Login(ctx context.Context, in model.LoginInput) (*model.AuthResult, error)
	Register(ctx context.Context, in model.RegisterInput) (*model.AuthResult, error)
	// token を明示して現在のプロフィールを取る
	Profile(ctx context.Context, token string) (*model.User, error)
}

// Snapshotはある時点のセッション。Identity は Authenticated のときだけ非nil。
type Snapshot struct {
	State    State
	Identity *model.User
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

func (s Snapshot) IsAdmin() bool {
	return s.IsAuthenticated() && s.Identity.Role == model.RoleAdmin
}

// Holderは認証状態のコンテナ。
// Resolving → Authenticated / Anonymous、Anonymous → Authenticated（login/register）、
// Authenticated → Anonymous（logout / 再検証失敗）の遷移だけを持つ。
type Holder struct {
	mu       sync.Mutex
	state    State
	identity *model.User
	token    string

	api   AuthAPI
	creds CredentialStore
	log   logrus.FieldLogger

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Newは保存済みトークンを読む。あれば Resolving、無ければ Anonymous で始まる。
func New(ctx context.Context, api AuthAPI, creds CredentialStore, log logrus.FieldLogger) *Holder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Holder{
		state: StateAnonymous,
		api:   api,
		creds: creds,
		log:   log.WithField("component", "session"),
	}

	token, err := creds.Load(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to read persisted token")
		return h
	}
	if token != "" {
		h.token = token
		h.state = StateResolving
	}
	return h
}

// Bootstrapは保存済みトークンをプロフィールと交換する。
// 失敗理由（通信・期限切れ・不正）を問わずトークンを捨てて Anonymous にする。
// エラーは返さない。
func (h *Holder) Bootstrap(ctx context.Context) Snapshot {
	h.mu.Lock()
	if h.state != StateResolving {
		snap := h.snapshotLocked()
		h.mu.Unlock()
		return snap
	}
	token := h.token
	h.mu.Unlock()

	user, err := h.api.Profile(ctx, token)
	if err == nil && user != nil {
		u := *user
		return h.transition(func() bool {
			// 確認中に login/logout されていたら結果を捨てる
			if h.state != StateResolving || h.token != token {
				return false
			}
			h.state = StateAuthenticated
			h.identity = &u
			return true
		})
	}

	h.log.WithError(err).Info("persisted token rejected, signing out")
	reset := false
	snap := h.transition(func() bool {
		if h.state != StateResolving || h.token != token {
			return false
		}
		h.resetLocked()
		reset = true
		return true
	})
	if reset {
		// 確認がタイムアウトしていても削除は行う
		if clearErr := h.creds.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			h.log.WithError(clearErr).Warn("failed to remove persisted token")
		}
	}
	return snap
}

// Loginは成功したときだけトークンを保存して Authenticated にする。
// 失敗時はセッションに触れずにエラーを返す。
func (h *Holder) Login(ctx context.Context, email, password string) error {
	in := model.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validateLogin(in); err != nil {
		return err
	}

	res, err := h.api.Login(ctx, in)
	if err != nil {
		return err
	}
	return h.authenticate(ctx, res)
}

// Registerは新規ユーザーを作ってそのままログインする。role が空なら customer。
func (h *Holder) Register(ctx context.Context, name, email, password string, role model.Role) error {
	if role == "" {
		role = model.RoleCustomer
	}
	in := model.RegisterInput{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
	}
	if err := validateRegister(in); err != nil {
		return err
	}

	res, err := h.api.Register(ctx, in)
	if err != nil {
		return err
	}
	return h.authenticate(ctx, res)
}

// Logoutはトークンを消して Anonymous にする（通信しない）。
// 保存領域の削除に失敗してもメモリ上はログアウトする。
func (h *Holder) Logout(ctx context.Context) error {
	err := h.creds.Clear(ctx)
	if err != nil {
		h.log.WithError(err).Warn("failed to remove persisted token")
	}

	h.transition(func() bool {
		if h.state == StateAnonymous && h.token == "" {
			return false
		}
		h.resetLocked()
		return true
	})
	return err
}

func (h *Holder) IsAuthenticated() bool {
	return h.Snapshot().IsAuthenticated()
}

func (h *Holder) IsAdmin() bool {
	return h.Snapshot().IsAdmin()
}

func (h *Holder) State() State {
	return h.Snapshot().State
}

// Identityはログイン中ユーザーのコピー（未ログインならnil）
func (h *Holder) Identity() *model.User {
	return h.Snapshot().Identity
}

// TokenはAPIクライアントの Authorization に使う。
// Resolving 中は確認中のトークンを返す。
func (h *Holder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Subscribeは状態遷移の通知を登録する。戻り値を呼ぶと解除。
func (h *Holder) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	h.subMu.Lock()
	id := h.nextID
	h.nextID++
	h.subs = append(h.subs, subscriber{id: id, fn: fn})
	h.subMu.Unlock()

	return func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		for i, sub := range h.subs {
			if sub.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

func (h *Holder) authenticate(ctx context.Context, res *model.AuthResult) error {
	if res == nil || res.Token == "" {
		return ErrEmptyToken
	}

	// 保存に失敗してもこのプロセス中はログイン状態を保つ
	if err := h.creds.Save(ctx, res.Token); err != nil {
		h.log.WithError(err).Warn("failed to persist token")
	}

	u := res.User
	h.transition(func() bool {
		h.state = StateAuthenticated
		h.identity = &u
		h.token = res.Token
		return true
	})

	h.log.WithFields(logrus.Fields{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("signed in")
	return nil
}

// transitionは fn で状態を書き換え、変化があれば通知する。
func (h *Holder) transition(fn func() bool) Snapshot {
	h.mu.Lock()
	changed := fn()
	snap := h.snapshotLocked()
	h.mu.Unlock()

	if changed {
		h.notify(snap)
	}
	return snap
}

func (h *Holder) resetLocked() {
	h.state = StateAnonymous
	h.identity = nil
	h.token = ""
}

func (h *Holder) snapshotLocked() Snapshot {
	snap := Snapshot{State: h.state}
	if h.identity != nil {
		u := *h.identity
		snap.Identity = &u
	}
	return snap
}

func (h *Holder) notify(snap Snapshot) {
	h.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(h.subs))
	for _, sub := range h.subs {
		fns = append(fns, sub.fn)
	}
	h.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
