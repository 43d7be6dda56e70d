package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary Список рецептов
// @Description Возвращает рецепты текущего пользователя: пациент видит выписанные ему, врач выписанные им
// @Tags Рецепты
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} successResponseBody "Список рецептов"
// @Router /prescriptions [get]
func (h *Handler) getPrescriptions(c *gin.Context) {
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

	limit, offset := paginationParams(c)

	prescriptions, err := h.services.Prescription.List(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, prescriptions)
}

// @Summary Рецепт по ID
// @Description Возвращает рецепт, доступен пациенту, врачу и администратору
// @Tags Рецепты
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID рецепта"
// @Success 200 {object} domain.Prescription "Рецепт"
// @Failure 403 {object} errorResponseBody "Нет доступа к рецепту"
// @Failure 404 {object} errorResponseBody "Рецепт не найден"
// @Router /prescriptions/{id} [get]
func (h *Handler) getPrescriptionByID(c *gin.Context) {
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
		badRequestResponse(c, "некорректный ID рецепта")
		return
	}

	prescription, err := h.services.Prescription.GetByID(c.Request.Context(), userID, role, id)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, prescription)
}
