package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// ハンドラの失敗レスポンス
type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := asHTTPError(err); ok {
		return c.JSON(he.Status, errorBody{Message: he.Message, Field: he.Field})
	}

	//500
	return c.JSON(http.StatusInternalServerError, errorBody{Message: "Server error"})
}

func (s *Server) registerRoutes(e *echo.Echo) {
	g := e.Group(basePath, s.injectFailures())

	authed := []echo.MiddlewareFunc{s.authJWT(), s.tokenVersionGuard()}
	admin := append(authed[:len(authed):len(authed)], adminRoleGuard())

	// auth
	g.POST("/auth/register", s.register)
	g.POST("/auth/login", s.login)
	g.GET("/auth/profile", s.profile, authed...)

	// products
	g.GET("/products", s.listProducts)
	g.GET("/products/:id", s.getProduct)
	g.POST("/products", s.createProduct, admin...)
	g.PUT("/products/:id", s.updateProduct, admin...)
	g.DELETE("/products/:id", s.deleteProduct, admin...)

	// categories
	g.GET("/categories", s.listCategories)
	g.POST("/categories", s.createCategory, admin...)
	g.PUT("/categories/:id", s.updateCategory, admin...)
	g.DELETE("/categories/:id", s.deleteCategory, admin...)

	// orders
	g.POST("/orders", s.createOrder, authed...)
	g.GET("/orders/my-orders", s.myOrders, authed...)
	g.GET("/orders", s.allOrders, admin...)
	g.PUT("/orders/:id/status", s.updateOrderStatus, admin...)
}

// =====================
// auth
// =====================

func (s *Server) register(c echo.Context) error {
	var req model.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}

	a, err := s.backend.register(req)
	if err != nil {
		return writeError(c, err)
	}
	return s.writeAuth(c, http.StatusCreated, a)
}

func (s *Server) login(c echo.Context) error {
	var req model.LoginInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}

	a, err := s.backend.authenticate(req)
	if err != nil {
		return writeError(c, err)
	}
	return s.writeAuth(c, http.StatusOK, a)
}

func (s *Server) writeAuth(c echo.Context, status int, a *account) error {
	token, err := s.issueToken(a)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, model.AuthResult{Token: token, User: a.user})
}

func (s *Server) profile(c echo.Context) error {
	userID, _ := c.Get(ctxUserIDKey).(int64)
	a, ok := s.backend.account(userID)
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody{Message: "User not found"})
	}
	return c.JSON(http.StatusOK, a.user)
}

// =====================
// products
// =====================

func (s *Server) listProducts(c echo.Context) error {
	var f model.ProductFilter

	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid limit", Field: "limit"})
		}
		f.Limit = l
	}
	if v := c.QueryParam("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid category", Field: "category"})
		}
		f.CategoryID = id
	}
	f.Search = c.QueryParam("search")
	f.Featured = strings.EqualFold(c.QueryParam("featured"), "true")

	return c.JSON(http.StatusOK, s.backend.listProducts(f))
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	p, err := s.backend.product(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c echo.Context) error {
	var req model.ProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}
	p, err := s.backend.saveProduct(0, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req model.ProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}
	p, err := s.backend.saveProduct(id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.backend.deleteProduct(id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, errorBody{Message: "Product deleted"})
}

// =====================
// categories
// =====================

func (s *Server) listCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, s.backend.listCategories())
}

func (s *Server) createCategory(c echo.Context) error {
	var req model.CategoryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}
	cat, err := s.backend.saveCategory(0, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req model.CategoryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}
	cat, err := s.backend.saveCategory(id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.backend.deleteCategory(id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, errorBody{Message: "Category deleted"})
}

// =====================
// orders
// =====================

func (s *Server) createOrder(c echo.Context) error {
	userID, _ := c.Get(ctxUserIDKey).(int64)

	var req model.OrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}

	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if len(key) > 255 {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "invalid idempotency key"})
	}

	o, err := s.backend.placeOrder(userID, key, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (s *Server) myOrders(c echo.Context) error {
	userID, _ := c.Get(ctxUserIDKey).(int64)
	return c.JSON(http.StatusOK, s.backend.listOrders(userID))
}

func (s *Server) allOrders(c echo.Context) error {
	return c.JSON(http.StatusOK, s.backend.listOrders(0))
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body"})
	}
	o, err := s.backend.updateOrderStatus(id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, newFieldError(http.StatusBadRequest, "id", "invalid id")
	}
	return id, nil
}
