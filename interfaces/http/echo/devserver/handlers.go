package devserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octabyte/pharmacy-session/interfaces/http/echo/middleware"
	"github.com/octabyte/pharmacy-session/models"
)

func (s *Server) issue(user models.User) (string, error) {
	now := s.cfg.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(user.ID, 10),
		"jti":  uuid.New().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
		"user": user,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *Server) login(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return err
	}

	user, ok := s.data.authenticate(strings.TrimSpace(creds.Email), creds.Password)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	token, err := s.issue(user)
	if err != nil {
		return err
	}

	c.Logger().Infof("issued token for user %d", user.ID)
	return c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        &user,
	})
}

func (s *Server) me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.DetailUnauthorized)
	}
	return c.JSON(http.StatusOK, user)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "id must be a positive integer")
	}
	return id, nil
}

func (s *Server) listCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listCategories())
}

func (s *Server) getCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cat, ok := s.data.category(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Category not found")
	}
	return c.JSON(http.StatusOK, cat)
}

func (s *Server) listProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listProducts())
}

func (s *Server) createProduct(c echo.Context) error {
	var in models.ProductCreate
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := c.Validate(in); err != nil {
		return err
	}
	p, ok := s.data.createProduct(in)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Category not found")
	}
	return c.JSON(http.StatusOK, p)
}

// updateProduct reads the multipart form the admin UI sends.
func (s *Server) updateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.FormValue("product_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "product_id is required")
	}
	categoryID, _ := strconv.ParseUint(c.FormValue("category_id"), 10, 64)

	in := models.ProductUpdate{
		Name:          strings.TrimSpace(c.FormValue("name")),
		CategoryID:    categoryID,
		Description:   optionalForm(c, "description"),
		Presentation:  optionalForm(c, "presentation"),
		Concentration: optionalForm(c, "concentration"),
	}
	if err := c.Validate(in); err != nil {
		return err
	}

	p, ok := s.data.updateProduct(id, in)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, p)
}

func optionalForm(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return nil
	}
	return &v
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if !s.data.deleteProduct(id) {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (s *Server) listBatches(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listBatches())
}

func (s *Server) createBatch(c echo.Context) error {
	var in models.MedicineBatchCreate
	if err := c.Bind(&in); err != nil {
		return err
	}
	if err := c.Validate(in); err != nil {
		return err
	}
	b, ok := s.data.createBatch(in)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Product not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) updateBatch(c echo.Context) error {
	var in models.MedicineBatchUpdate
	if err := c.Bind(&in); err != nil {
		return err
	}
	b, ok := s.data.updateBatch(in)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBatch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if !s.data.deleteBatch(id) {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Batch deleted"})
}
