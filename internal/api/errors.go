package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// 401 / 403（トークン不正・期限切れ・権限なし）
	ErrUnauthorized = errors.New("api: unauthorized")

	// 404
	ErrNotFound = errors.New("api: not found")
)

// TransportErrorはレスポンスが得られなかった失敗（接続・タイムアウトなど）
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeErrorは2xxが返ったが本文を読めなかった失敗。
// 書き込み系ではサーバ側の処理は済んでいる。
type DecodeError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %s (%d): %v", e.Method, e.Path, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Errorはバックエンドが返した失敗。Field は入力項目単位の原因があるときだけ入る。
type Error struct {
	Status  int
	Message string
	Field   string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Field != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, msg, e.Field)
	}
	return fmt.Sprintf("%d: %s", e.Status, msg)
}

// errors.Is(err, ErrUnauthorized) / errors.Is(err, ErrNotFound) で判定できる
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func AsError(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// エラーレスポンス。{"message","field"} と {"error"} のどちらも受ける。
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Field   string `json:"field"`
}
