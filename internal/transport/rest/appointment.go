package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/pkg/validator"
)

// @Summary Создание записи на прием
// @Description Создает запись пациента к врачу на свободный слот
// @Tags Записи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.CreateAppointmentDTO true "Данные записи"
// @Success 201 {object} domain.Appointment "Созданная запись"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Failure 409 {object} errorResponseBody "Слот уже занят"
// @Router /appointments [post]
func (h *Handler) createAppointment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil || role != domain.UserRolePatient {
		forbiddenResponse(c, "запись на прием доступна только пациентам")
		return
	}

	var input domain.CreateAppointmentDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	appointment, err := h.services.Appointment.Create(c.Request.Context(), userID, input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	createdResponse(c, appointment)
}

// @Summary Список записей
// @Description Возвращает записи текущего пользователя: пациент видит свои, врач свои, администратор все
// @Tags Записи
// @Security ApiKeyAuth
// @Produce json
// @Param status query string false "Статус записи" Enums(pending, confirmed, cancelled, completed)
// @Param date query string false "Дата в формате YYYY-MM-DD"
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} paginatedResponse "Список записей"
// @Router /appointments [get]
func (h *Handler) getAppointments(c *gin.Context) {
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
	filter := domain.AppointmentFilter{
		Limit:  limit,
		Offset: offset,
	}

	switch role {
	case domain.UserRolePatient:
		filter.PatientID = &userID
	case domain.UserRoleDoctor:
		doctor, err := h.services.Doctor.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			forbiddenResponse(c, "требуется профиль врача")
			return
		}
		filter.DoctorID = &doctor.ID
	case domain.UserRoleAdmin:
	default:
		forbiddenResponse(c)
		return
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.AppointmentStatus(statusStr)
		if !status.IsValid() {
			badRequestResponse(c, "некорректный статус записи")
			return
		}
		filter.Status = &status
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := validator.ParseDate(dateStr)
		if err != nil {
			badRequestResponse(c, "некорректная дата, ожидается формат YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	appointments, total, err := h.services.Appointment.List(c.Request.Context(), filter)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	page := offset/limit + 1
	paginatedSuccessResponse(c, appointments, total, page, limit)
}

// @Summary Запись по ID
// @Description Возвращает запись, доступна ее участникам и администратору
// @Tags Записи
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment "Запись на прием"
// @Failure 403 {object} errorResponseBody "Нет доступа к записи"
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Router /appointments/{id} [get]
func (h *Handler) getAppointmentByID(c *gin.Context) {
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
		badRequestResponse(c, "некорректный ID записи")
		return
	}

	appointment, err := h.services.Appointment.GetByID(c.Request.Context(), userID, role, id)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Изменение статуса записи
// @Description Переводит запись в новый статус, при завершении приема с диагнозом создается рецепт
// @Tags Записи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.UpdateAppointmentStatusDTO true "Новый статус и клинические данные"
// @Success 200 {object} domain.Appointment "Обновленная запись"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Недопустимый переход статуса"
// @Failure 422 {object} errorResponseBody "Не указана причина отмены"
// @Router /appointments/{id}/status [put]
func (h *Handler) updateAppointmentStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID записи")
		return
	}

	var input domain.UpdateAppointmentStatusDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	appointment, err := h.services.Appointment.UpdateStatus(c.Request.Context(), userID, id, input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

type cancelAppointmentInput struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Отмена записи
// @Description Отменяет запись с обязательным указанием причины
// @Tags Записи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body cancelAppointmentInput true "Причина отмены"
// @Success 200 {object} domain.Appointment "Отмененная запись"
// @Failure 409 {object} errorResponseBody "Запись уже в конечном статусе"
// @Failure 422 {object} errorResponseBody "Не указана причина отмены"
// @Router /appointments/{id} [delete]
func (h *Handler) cancelAppointment(c *gin.Context) {
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
		badRequestResponse(c, "некорректный ID записи")
		return
	}

	var input cancelAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "причина отмены обязательна")
		return
	}

	appointment, err := h.services.Appointment.Cancel(c.Request.Context(), userID, role, id, input.Reason)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Рецепт по записи
// @Description Возвращает рецепт, выписанный по завершенной записи
// @Tags Рецепты
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Prescription "Рецепт"
// @Failure 403 {object} errorResponseBody "Нет доступа к записи"
// @Failure 404 {object} errorResponseBody "Рецепт не найден"
// @Router /appointments/{id}/prescription [get]
func (h *Handler) getAppointmentPrescription(c *gin.Context) {
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
		badRequestResponse(c, "некорректный ID записи")
		return
	}

	// Доступ к рецепту совпадает с доступом к самой записи.
	if _, err := h.services.Appointment.GetByID(c.Request.Context(), userID, role, id); err != nil {
		domainErrorResponse(c, err)
		return
	}

	prescription, err := h.services.Prescription.GetByAppointmentID(c.Request.Context(), id)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, prescription)
}
