package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/farm-market-backend/internal/http/middleware"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/response"
)

// requireUserID достаёт текущего пользователя; при отсутствии сам отвечает 401.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID разбирает :id; при ошибке сам отвечает 400.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "некорректный ID "+what)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// parseFloatQuery возвращает nil для пустого параметра и ошибку для нечислового,
// в том числе для NaN и бесконечности.
func parseFloatQuery(c *gin.Context, key string) (*float64, error) {
	valueStr := strings.TrimSpace(c.Query(key))
	if valueStr == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%s: ожидается конечное число", key)
	}

	return &value, nil
}
