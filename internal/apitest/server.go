// Package apitestは店舗バックエンドREST APIの偽物をメモリ上で動かす。
// クライアント側パッケージのテストから使う。
package apitest

import (
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

const basePath = "/api"

type failure struct {
	status  int
	message string
	field   string
	delay   time.Duration
}

// Recordedは受け付けたリクエストの記録
type Recorded struct {
	Method         string
	Path           string
	Authorization  string
	IdempotencyKey string
}

type Server struct {
	backend  *backend
	echo     *echo.Echo
	http     *httptest.Server
	secret   []byte
	tokenTTL time.Duration

	mu       sync.Mutex
	failures map[string][]failure
	requests []Recorded
}

type Option func(*Server)

// トークンの有効期限（既定1時間）
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// Newは偽バックエンドを起動し、テスト終了時に止める。
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	s := &Server{
		backend:  newBackend(),
		secret:   secret,
		tokenTTL: time.Hour,
		failures: make(map[string][]failure),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s.registerRoutes(e)
	s.echo = e

	s.http = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// URLはクライアントに渡すベースURL（…/api）
func (s *Server) URL() string {
	return s.http.URL + basePath
}

// Closeは以降のリクエストを接続エラーにする
func (s *Server) Close() {
	s.http.Close()
}

// =====================
// Seed
// =====================

func (s *Server) SeedUser(t testing.TB, name, email, password string, role model.Role) model.User {
	t.Helper()
	a, err := s.backend.register(model.RegisterInput{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return a.user
}

func (s *Server) SeedCategory(t testing.TB, name string) model.Category {
	t.Helper()
	c, err := s.backend.saveCategory(0, model.CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("seed category %s: %v", name, err)
	}
	return c
}

func (s *Server) SeedProduct(t testing.TB, in model.ProductInput) model.Product {
	t.Helper()
	p, err := s.backend.saveProduct(0, in)
	if err != nil {
		t.Fatalf("seed product %s: %v", in.Name, err)
	}
	return p
}

// Productは価格文字列から商品入力を作る簡易版
func Product(name, price string, stock int) model.ProductInput {
	return model.ProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

// TokenForは seed 済みユーザーのトークンを発行する
func (s *Server) TokenFor(t testing.TB, userID int64) string {
	t.Helper()
	a, ok := s.backend.account(userID)
	if !ok {
		t.Fatalf("unknown user %d", userID)
	}
	token, err := s.issueToken(a)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// Revokeはそのユーザーの発行済みトークンをすべて無効にする
func (s *Server) Revoke(userID int64) {
	s.backend.revoke(userID)
}

// =====================
// Failure injection
// =====================

// FailNextは次の method path（/api を除いたパス）への1回を status で失敗させる
func (s *Server) FailNext(method, path string, status int, message string) {
	s.addFailure(method, path, failure{status: status, message: message})
}

// FailNextFieldは項目付きの失敗を返す
func (s *Server) FailNextField(method, path string, status int, field, message string) {
	s.addFailure(method, path, failure{status: status, message: message, field: field})
}

// StallNextは応答を delay だけ遅らせてから 504 を返す（タイムアウトの確認用）
func (s *Server) StallNext(method, path string, delay time.Duration) {
	s.addFailure(method, path, failure{status: http.StatusGatewayTimeout, message: "stalled", delay: delay})
}

func (s *Server) addFailure(method, path string, f failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := failureKey(method, path)
	s.failures[k] = append(s.failures[k], f)
}

func (s *Server) takeFailure(method, path string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := failureKey(method, path)
	q := s.failures[k]
	if len(q) == 0 {
		return failure{}, false
	}
	s.failures[k] = q[1:]
	return q[0], true
}

func failureKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// =====================
// Inspection
// =====================

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Recorded{
		Method:         r.Method,
		Path:           strings.TrimPrefix(r.URL.Path, basePath),
		Authorization:  r.Header.Get("Authorization"),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
}

// Requestsは受け付けた順のリクエスト
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// Ordersは全注文（新しい順）
func (s *Server) Orders() []model.Order {
	return s.backend.listOrders(0)
}

// Stockは商品の現在在庫（無ければ -1）
func (s *Server) Stock(productID int64) int {
	p, err := s.backend.product(productID)
	if err != nil {
		return -1
	}
	return p.Stock
}
