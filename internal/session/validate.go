package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// 入力が不正（APIを呼ぶ前に弾く）
var ErrInvalidInput = errors.New("session: invalid input")

// パスワード最低文字数（登録時のみ）
const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ログインの入力を検証
func validateLogin(in model.LoginInput) error {
	email := strings.TrimSpace(in.Email)

	// 必須チェック
	if email == "" || in.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	// email形式
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	return nil
}

// 新規登録の入力を検証
func validateRegister(in model.RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateLogin(model.LoginInput{Email: in.Email, Password: in.Password}); err != nil {
		return err
	}
	if len(in.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: role must be customer or admin", ErrInvalidInput)
	}
	return nil
}
