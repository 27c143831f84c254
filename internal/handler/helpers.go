package handler

import (
	"net/http"
	"strconv"

	"market/internal/middleware"
	"market/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// usecaseのHTTPErrorをそのままJSONへ。それ以外は500。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodePersistence})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func getIdentityFromContext(c echo.Context) (usecase.Identity, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Identity{}, false
	}

	ident := usecase.Identity{UserID: id}
	if v, ok := c.Get(middleware.CtxUsernameKey).(string); ok {
		ident.Username = v
	}
	if v, ok := c.Get(middleware.CtxEmailKey).(string); ok {
		ident.Email = v
	}
	return ident, true
}

// page/limitのクエリを読む（省略時はデフォルト）
func parsePaging(c echo.Context, defaultLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		page = p
	}

	limit := defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, err
		}
		limit = l
	}

	return page, limit, nil
}
