package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

// @Summary Текущий пользователь
// @Description Возвращает профиль авторизованного пользователя
// @Tags Пользователи
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.User "Профиль пользователя"
// @Failure 401 {object} errorResponseBody "Требуется авторизация"
// @Router /users/me [get]
func (h *Handler) getCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), userID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, user)
}

// @Summary Обновление профиля
// @Description Обновляет данные авторизованного пользователя
// @Tags Пользователи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.UpdateUserDTO true "Новые данные"
// @Success 200 {object} messageResponseType "Профиль обновлен"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Router /users/me [put]
func (h *Handler) updateCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.UpdateUserDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.User.Update(c.Request.Context(), userID, input); err != nil {
		h.logger.Error("ошибка обновления профиля", zap.Int64("userID", userID), zap.Error(err))
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "профиль обновлен")
}

// @Summary Смена пароля
// @Description Меняет пароль авторизованного пользователя
// @Tags Пользователи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.PasswordUpdateDTO true "Текущий и новый пароль"
// @Success 200 {object} messageResponseType "Пароль изменен"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 403 {object} errorResponseBody "Неверный текущий пароль"
// @Router /users/me/password [put]
func (h *Handler) updatePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.PasswordUpdateDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.User.UpdatePassword(c.Request.Context(), userID, input); err != nil {
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "пароль изменен")
}

// @Summary Список пользователей
// @Description Возвращает список пользователей, доступно только администратору
// @Tags Пользователи
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} successResponseBody "Список пользователей"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Router /users [get]
func (h *Handler) getUsers(c *gin.Context) {
	limit, offset := paginationParams(c)

	users, err := h.services.User.List(c.Request.Context(), limit, offset)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, users)
}

// @Summary Пользователь по ID
// @Description Возвращает пользователя по идентификатору, доступно только администратору
// @Tags Пользователи
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {object} domain.User "Профиль пользователя"
// @Failure 404 {object} errorResponseBody "Пользователь не найден"
// @Router /users/{id} [get]
func (h *Handler) getUserByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID пользователя")
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), id)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, user)
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
