package apitest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

const (
	ctxUserIDKey       = "user_id"       // int64
	ctxUserRoleKey     = "user_role"     // model.Role
	ctxTokenVersionKey = "token_version" // int
)

// issueTokenは HS256 のアクセストークンを発行する
func (s *Server) issueToken(a *account) (string, error) {
	now := s.backend.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(a.user.ID, 10),
		"role": string(a.user.Role),
		"tv":   a.tokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// bearerトークンを検証して user_id / role / token_version を context に入れる
func (s *Server) authJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("No token provided"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("No token provided"))
			}

			//JWTをパースして検証する（expも見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return s.secret, nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}
			role, ok := claims["role"].(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}
			tv, err := parseInt(claims["tv"])
			if err != nil || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}

			c.Set(ctxUserIDKey, userID)
			c.Set(ctxUserRoleKey, model.Role(role))
			c.Set(ctxTokenVersionKey, tv)
			return next(c)
		}
	}
}

// トークンの tv と現在の token_version が一致するか確認（revoke 後は401）
func (s *Server) tokenVersionGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ctxUserIDKey).(int64)
			tv, _ := c.Get(ctxTokenVersionKey).(int)

			a, ok := s.backend.account(userID)
			if !ok || a.tokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}
			return next(c)
		}
	}
}

// adminだけ通す
func adminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ctxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Invalid token"))
			}
			if role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, errorJSON("Admin access required"))
			}
			return next(c)
		}
	}
}

// injectFailuresは FailNext で登録した失敗を1回だけ返す
func (s *Server) injectFailures() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			s.record(req)

			path := strings.TrimPrefix(req.URL.Path, basePath)
			if f, ok := s.takeFailure(req.Method, path); ok {
				if f.delay > 0 {
					select {
					case <-time.After(f.delay):
					case <-req.Context().Done():
						return req.Context().Err()
					}
				}
				return c.JSON(f.status, errorBody{Message: f.message, Field: f.field})
			}
			return next(c)
		}
	}
}

// 認証系は {"error": "..."} 形式（ハンドラは {"message","field"}）
type authErrorBody struct {
	Error string `json:"error"`
}

func errorJSON(msg string) authErrorBody {
	return authErrorBody{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	default:
		return 0, errors.New("invalid int")
	}
}
