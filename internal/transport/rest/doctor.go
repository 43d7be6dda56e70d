package rest

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

// @Summary Список врачей
// @Description Возвращает список врачей с фильтрацией по специализации
// @Tags Врачи
// @Produce json
// @Param specialization query string false "Специализация"
// @Param only_verified query bool false "Только верифицированные" default(true)
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} paginatedResponse "Список врачей"
// @Router /doctors [get]
func (h *Handler) getDoctors(c *gin.Context) {
	limit, offset := paginationParams(c)

	filter := domain.DoctorFilter{
		OnlyVerified: c.DefaultQuery("only_verified", "true") == "true",
		Limit:        limit,
		Offset:       offset,
	}

	if spec := c.Query("specialization"); spec != "" {
		filter.Specialization = &spec
	}

	doctors, total, err := h.services.Doctor.List(c.Request.Context(), filter)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	page := offset/limit + 1
	paginatedSuccessResponse(c, doctors, total, page, limit)
}

// @Summary Врач по ID
// @Description Возвращает профиль врача с рейтингом
// @Tags Врачи
// @Produce json
// @Param id path int true "ID врача"
// @Success 200 {object} domain.Doctor "Профиль врача"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id} [get]
func (h *Handler) getDoctorByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID врача")
		return
	}

	doctor, err := h.services.Doctor.GetByID(c.Request.Context(), id)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Свободные слоты врача
// @Description Возвращает свободные слоты врача на указанную дату
// @Tags Врачи
// @Produce json
// @Param id path int true "ID врача"
// @Param date query string true "Дата в формате YYYY-MM-DD"
// @Success 200 {object} successResponseBody "Список свободных слотов"
// @Failure 400 {object} errorResponseBody "Некорректная дата"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id}/slots [get]
func (h *Handler) getDoctorSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID врача")
		return
	}

	date := c.Query("date")
	if date == "" {
		badRequestResponse(c, "параметр date обязателен")
		return
	}

	slots, err := h.services.Appointment.GetAvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, slots)
}

// @Summary Отзывы о враче
// @Description Возвращает отзывы пациентов о враче
// @Tags Врачи
// @Produce json
// @Param id path int true "ID врача"
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} paginatedResponse "Список отзывов"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id}/reviews [get]
func (h *Handler) getDoctorReviews(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID врача")
		return
	}

	limit, offset := paginationParams(c)

	reviews, total, err := h.services.Review.GetByDoctorID(c.Request.Context(), id, limit, offset)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	page := offset/limit + 1
	paginatedSuccessResponse(c, reviews, total, page, limit)
}

// @Summary Мой профиль врача
// @Description Возвращает профиль врача текущего пользователя
// @Tags Врачи
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.Doctor "Профиль врача"
// @Failure 404 {object} errorResponseBody "Профиль не найден"
// @Router /doctors/me [get]
func (h *Handler) getMyDoctorProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	doctor, err := h.services.Doctor.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Создание профиля врача
// @Description Создает профиль врача для текущего пользователя
// @Tags Врачи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.CreateDoctorDTO true "Данные профиля"
// @Success 201 {object} successResponseBody "ID созданного профиля"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Профиль уже существует"
// @Router /doctors [post]
func (h *Handler) createDoctorProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.CreateDoctorDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Doctor.Create(c.Request.Context(), userID, input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	createdResponse(c, map[string]interface{}{
		"id": id,
	})
}

// @Summary Обновление профиля врача
// @Description Обновляет профиль врача текущего пользователя
// @Tags Врачи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body domain.UpdateDoctorDTO true "Новые данные"
// @Success 200 {object} messageResponseType "Профиль обновлен"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Router /doctors/me [put]
func (h *Handler) updateDoctorProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.UpdateDoctorDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Doctor.Update(c.Request.Context(), userID, input); err != nil {
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "профиль обновлен")
}

// @Summary Верификация врача
// @Description Подтверждает или снимает верификацию врача, доступно только администратору
// @Tags Врачи
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param input body verifyDoctorInput true "Статус верификации"
// @Success 200 {object} messageResponseType "Статус обновлен"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id}/verify [put]
func (h *Handler) verifyDoctor(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "некорректный ID врача")
		return
	}

	var input verifyDoctorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Doctor.Verify(c.Request.Context(), id, *input.Verified); err != nil {
		domainErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "статус верификации обновлен")
}

type verifyDoctorInput struct {
	Verified *bool `json:"verified" binding:"required"`
}

// @Summary Загрузка фото врача
// @Description Загружает фото профиля врача
// @Tags Врачи
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Файл изображения"
// @Success 200 {object} successResponseBody "URL загруженного фото"
// @Failure 400 {object} errorResponseBody "Некорректный файл"
// @Router /doctors/me/photo [post]
func (h *Handler) uploadDoctorPhoto(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		badRequestResponse(c, "файл не найден в запросе")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("ошибка открытия файла", zap.Error(err))
		badRequestResponse(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("ошибка чтения файла", zap.Error(err))
		badRequestResponse(c, "не удалось прочитать файл")
		return
	}

	photoURL, err := h.services.Doctor.UploadProfilePhoto(c.Request.Context(), userID, data, fileHeader.Filename)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, map[string]interface{}{
		"photo_url": photoURL,
	})
}

// @Summary Удаление фото врача
// @Description Удаляет фото профиля врача
// @Tags Врачи
// @Security ApiKeyAuth
// @Produce json
// @Success 204 {object} nil "Фото удалено"
// @Router /doctors/me/photo [delete]
func (h *Handler) deleteDoctorPhoto(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	if err := h.services.Doctor.DeleteProfilePhoto(c.Request.Context(), userID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	noContentResponse(c)
}
