package model

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// ログイン中ユーザーのプロフィール（パスワードは持たない）
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// login / register のレスポンス
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// 新規登録の入力（auth.register）
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// ログインの入力（auth.login）
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
