package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

// @Summary Создание отзыва
// @Description Создает отзыв о враче, доступно пациенту после завершенного приема
// @Tags Отзывы
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.CreateReviewDTO true "Данные отзыва"
// @Success 201 {object} successResponseBody "ID созданного отзыва"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 403 {object} errorResponseBody "Нет завершенного приема у врача"
// @Failure 409 {object} errorResponseBody "Отзыв уже оставлен"
// @Router /reviews [post]
func (h *Handler) createReview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil || role != domain.UserRolePatient {
		forbiddenResponse(c, "отзывы могут оставлять только пациенты")
		return
	}

	var input domain.CreateReviewDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Review.Create(c.Request.Context(), userID, input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	createdResponse(c, map[string]interface{}{
		"id": id,
	})
}

// @Summary Удаление отзыва
// @Description Удаляет отзыв, доступно его автору и администратору
// @Tags Отзывы
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID отзыва"
// @Success 204 {object} nil "Отзыв удален"
// @Failure 403 {object} errorResponseBody "Нет доступа к отзыву"
// @Failure 404 {object} errorResponseBody "Отзыв не найден"
// @Router /reviews/{id} [delete]
func (h *Handler) deleteReview(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID отзыва")
		return
	}

	if err := h.services.Review.Delete(c.Request.Context(), userID, role, id); err != nil {
		domainErrorResponse(c, err)
		return
	}

	noContentResponse(c)
}
