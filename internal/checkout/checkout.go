package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/surajkumarsah0/bazar-frontend/internal/api"
	"github.com/surajkumarsah0/bazar-frontend/internal/cart"
	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

var (
	// 未ログイン
	ErrNotAuthenticated = errors.New("checkout: sign in to place an order")

	// カートが空
	ErrCartEmpty = errors.New("checkout: cart is empty")

	// 配送先・電話・支払い方法の不備
	ErrInvalidDetails = errors.New("checkout: invalid details")

	// 注文は受け付けられたが応答を読めなかった（注文履歴で確認する）
	ErrOrderUnconfirmed = errors.New("checkout: order accepted but response unreadable, check your orders")
)

// OrderAPIは注文作成に使うAPI
type OrderAPI interface {
	CreateOrder(ctx context.Context, in model.OrderRequest, idempotencyKey string) (*model.Order, error)
}

// Sessionはログイン状態の読み取りだけを要求する
type Session interface {
	IsAuthenticated() bool
}

// Detailsはチェックアウトフォームの入力
type Details struct {
	ShippingAddress string
	Phone           string
	PaymentMethod   model.PaymentMethod
}

// Validateは必須項目と支払い方法を確認する。支払い方法が空なら代引き。
func (d *Details) Validate() error {
	d.ShippingAddress = strings.TrimSpace(d.ShippingAddress)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.PaymentMethod == "" {
		d.PaymentMethod = model.PaymentCashOnDelivery
	}

	if d.ShippingAddress == "" {
		return fmt.Errorf("%w: shipping address is required", ErrInvalidDetails)
	}
	if d.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidDetails)
	}
	if !d.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method must be %q or %q",
			ErrInvalidDetails, model.PaymentCashOnDelivery, model.PaymentOnline)
	}
	return nil
}

// Serviceは注文確定の流れを持つ。
// 成功したときだけカートを空にし、失敗時はカートに触れない。
type Service struct {
	cart    *cart.Engine
	session Session
	orders  OrderAPI
	log     logrus.FieldLogger
}

// DI
func NewService(c *cart.Engine, s Session, orders OrderAPI, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		cart:    c,
		session: s,
		orders:  orders,
		log:     log.WithField("component", "checkout"),
	}
}

// 通信エラー時の送信回数（同じ Idempotency-Key で再送する）
const maxAttempts = 2

// PlaceOrderはカートの中身で注文を作る。
func (s *Service) PlaceOrder(ctx context.Context, d Details) (*model.Order, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	snap := s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, ErrCartEmpty
	}

	req := model.OrderRequest{
		Items:           make([]model.OrderLine, 0, len(snap.Lines)),
		ShippingAddress: d.ShippingAddress,
		Phone:           d.Phone,
		PaymentMethod:   d.PaymentMethod,
	}
	for _, l := range snap.Lines {
		req.Items = append(req.Items, model.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	key := api.NewIdempotencyKey()
	logger := s.log.WithFields(logrus.Fields{
		"lines":           len(req.Items),
		"idempotency_key": key,
	})

	var order *model.Order
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order, err = s.orders.CreateOrder(ctx, req, key)
		if err == nil || !api.IsTransport(err) || ctx.Err() != nil {
			break
		}
		logger.WithError(err).WithField("attempt", attempt).Warn("order request did not reach backend")
	}
	if api.IsDecode(err) {
		// 二重注文を避けるためカートは空にする
		s.cart.Clear()
		logger.WithError(err).Error("order accepted but response unreadable, cart cleared")
		return nil, fmt.Errorf("%w: %v", ErrOrderUnconfirmed, err)
	}
	if err != nil {
		logger.WithError(err).Warn("order placement failed, cart kept")
		return nil, err
	}

	s.cart.Clear()
	logger.WithField("order_id", order.ID).Info("order placed")
	return order, nil
}
