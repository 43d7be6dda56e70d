package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

// @Summary Мое расписание
// @Description Возвращает расписание врача текущего пользователя. Если расписание еще не создавалось, возвращается расписание по умолчанию.
// @Tags Расписание
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.Schedule "Расписание врача"
// @Failure 403 {object} errorResponseBody "Требуется профиль врача"
// @Router /schedules/me [get]
func (h *Handler) getMySchedule(c *gin.Context) {
	doctor, ok := h.requireDoctor(c)
	if !ok {
		return
	}

	schedule, err := h.services.Schedule.GetByDoctorID(c.Request.Context(), doctor.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, schedule)
}

// @Summary Обновление расписания
// @Description Обновляет недельный шаблон, длительность слота, буфер и лимиты врача
// @Tags Расписание
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.UpdateScheduleDTO true "Изменяемые поля расписания"
// @Success 200 {object} domain.Schedule "Обновленное расписание"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 403 {object} errorResponseBody "Требуется профиль врача"
// @Router /schedules/me [put]
func (h *Handler) updateMySchedule(c *gin.Context) {
	doctor, ok := h.requireDoctor(c)
	if !ok {
		return
	}

	var input domain.UpdateScheduleDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	schedule, err := h.services.Schedule.Update(c.Request.Context(), doctor.ID, input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, schedule)
}

// requireDoctor резолвит профиль врача текущего пользователя.
func (h *Handler) requireDoctor(c *gin.Context) (*domain.Doctor, bool) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return nil, false
	}

	doctor, err := h.services.Doctor.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("профиль врача не найден", zap.Int64("userID", userID), zap.Error(err))
		forbiddenResponse(c, "требуется профиль врача")
		return nil, false
	}

	return doctor, true
}
