package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type AuthHandler struct {
	service *app.AuthService
}

func NewAuthHandler(service *app.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userLoginRequest struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := req.Name
	if name == "" {
		name = req.Username
	}
	user, err := h.service.Signup(c.Request().Context(), app.SignupInput{
		Email:    req.Email,
		Name:     name,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created", "userId": user.ID})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) UserLogin(c echo.Context) error {
	var req userLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.service.UserLogin(c.Request().Context(), req.LoginID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CreateUser provisions a learner account and returns its generated login id.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.CreateUser(c.Request().Context(), req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created", "user": user})
}

func (h *AuthHandler) ListUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}
