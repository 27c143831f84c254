package handler

import (
	"net/http"
	"strconv"

	"market/internal/config"
	"market/internal/middleware"
	"market/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /users のHTTP
type UserHandler struct {
	uc        *usecase.UserUsecase
	productUC *usecase.ProductUsecase
}

// DI
func NewUserHandler(uc *usecase.UserUsecase, productUC *usecase.ProductUsecase) *UserHandler {
	return &UserHandler{uc: uc, productUC: productUC}
}

type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	ProfileImage *string `json:"profile_image"`
	Bio          *string `json:"bio"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//公開プロフィール
	e.GET("/users/:id", h.publicProfile)

	g := e.Group("/users/me")
	g.Use(middleware.AuthJWT(cfg))
	g.GET("", h.myProfile)
	g.PUT("", h.updateProfile)
	g.GET("/listings", h.myListings)
}

func (h *UserHandler) myProfile(c echo.Context) error {
	ident, ok := getIdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	out, err := h.uc.GetMyProfile(c.Request().Context(), ident)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: usecase.CodeValidation})
	}

	out, err := h.uc.UpdateMyProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
		Bio:          req.Bio,
		City:         req.City,
		State:        req.State,
		Country:      req.Country,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) myListings(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: usecase.CodeUnauthorized})
	}

	page, limit, err := parsePaging(c, 10)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid paging", Code: usecase.CodeValidation})
	}

	status := c.QueryParam("status")

	out, err := h.productUC.ListMyListings(c.Request().Context(), userID, status, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) publicProfile(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id", Code: usecase.CodeValidation})
	}

	out, err := h.uc.GetPublicProfile(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
