package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/internal/repository"
	"medibook/pkg/validator"
)

type AppointmentServiceImpl struct {
	repo             repository.AppointmentRepository
	scheduleRepo     repository.ScheduleRepository
	doctorRepo       repository.DoctorRepository
	userRepo         repository.UserRepository
	prescriptionRepo repository.PrescriptionRepository
	logger           *zap.Logger
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	scheduleRepo repository.ScheduleRepository,
	doctorRepo repository.DoctorRepository,
	userRepo repository.UserRepository,
	prescriptionRepo repository.PrescriptionRepository,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:             repo,
		scheduleRepo:     scheduleRepo,
		doctorRepo:       doctorRepo,
		userRepo:         userRepo,
		prescriptionRepo: prescriptionRepo,
		logger:           logger,
	}
}

// GetAvailableSlots генерирует кандидатов слотов из расписания врача на дату
// и вычитает слоты, начало которых совпадает со временем активной записи.
// Совпадение проверяется по строке "HH:MM", а не по пересечению интервалов:
// длительность записи неявно равна длительности слота политики. Если врач
// после создания записей изменит slot_duration_minutes, старые записи могут
// перестать совпадать с новыми слотами — известное ограничение модели.
func (s *AppointmentServiceImpl) GetAvailableSlots(ctx context.Context, doctorID int64, dateStr string) ([]domain.Slot, error) {
	date, err := validator.ParseDate(dateStr)
	if err != nil {
		return nil, domain.NewValidationError("неверный формат даты, ожидается YYYY-MM-DD")
	}

	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	schedule, err := s.scheduleRepo.GetByDoctorID(ctx, doctorID)
	if err != nil {
		// Отсутствие расписания — пустой результат, не ошибка.
		if domain.IsKind(err, domain.ErrorKindNotFound) {
			return []domain.Slot{}, nil
		}
		s.logger.Error("ошибка получения расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения расписания: %w", err)
	}

	candidates := schedule.SlotsForDate(date)
	if len(candidates) == 0 {
		return candidates, nil
	}

	bookedTimes, err := s.repo.ListActiveTimes(ctx, doctorID, date)
	if err != nil {
		s.logger.Error("ошибка получения занятых слотов", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}

	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	available := make([]domain.Slot, 0, len(candidates))
	for _, slot := range candidates {
		if !booked[slot.Start] {
			available = append(available, slot)
		}
	}

	return available, nil
}

// Create бронирует слот. Предусловия проверяются по порядку, каждое — отдельный
// вид отказа. Проверка занятости и вставка в сумме атомарны: предварительная
// проверка дает понятную ошибку, а частичный уникальный индекс в БД закрывает
// гонку одновременных запросов на один и тот же слот.
func (s *AppointmentServiceImpl) Create(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	if _, err := s.userRepo.GetByID(ctx, patientID); err != nil {
		s.logger.Error("пациент не найден при создании записи", zap.Int64("patientID", patientID), zap.Error(err))
		return nil, err
	}

	doctor, err := s.doctorRepo.GetByID(ctx, dto.DoctorID)
	if err != nil {
		s.logger.Warn("врач не найден при создании записи", zap.Int64("doctorID", dto.DoctorID), zap.Error(err))
		return nil, err
	}
	if !doctor.IsVerified {
		// Неверифицированный врач неотличим от отсутствующего.
		return nil, domain.NewNotFoundError("врач не найден")
	}

	date, err := validator.ParseDate(dto.Date)
	if err != nil {
		return nil, domain.NewValidationError("неверный формат даты, ожидается YYYY-MM-DD")
	}
	if date.Before(validator.Today()) {
		return nil, domain.NewValidationError("дата приема не может быть в прошлом")
	}

	if !validator.ValidateClock(dto.Time) {
		return nil, domain.NewValidationError("неверный формат времени, ожидается HH:MM")
	}

	if !validator.ValidateReasonLength(dto.Reason, domain.MinReasonLength, domain.MaxReasonLength) {
		return nil, domain.NewValidationError(fmt.Sprintf("причина обращения должна быть от %d до %d символов", domain.MinReasonLength, domain.MaxReasonLength))
	}

	exists, err := s.repo.ExistsActive(ctx, dto.DoctorID, date, dto.Time)
	if err != nil {
		s.logger.Error("ошибка проверки доступности слота", zap.Error(err))
		return nil, fmt.Errorf("ошибка проверки доступности слота: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("выбранный слот времени уже занят")
	}

	appointment := domain.Appointment{
		PatientID:       patientID,
		DoctorID:        dto.DoctorID,
		Date:            date,
		Time:            dto.Time,
		Reason:          strings.TrimSpace(dto.Reason),
		Status:          domain.AppointmentStatusPending,
		ConsultationFee: doctor.ConsultationFee,
		PaymentStatus:   domain.PaymentStatusPending,
	}

	id, err := s.repo.Create(ctx, appointment)
	if err != nil {
		if domain.IsKind(err, domain.ErrorKindConflict) {
			return nil, err
		}
		s.logger.Error("ошибка создания записи на прием", zap.Error(err))
		return nil, fmt.Errorf("ошибка создания записи на прием: %w", err)
	}

	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("ошибка получения созданной записи", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения созданной записи: %w", err)
	}

	return created, nil
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, callerID int64, role domain.UserRole, id int64) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(ctx, callerID, role, appointment); err != nil {
		return nil, err
	}

	return appointment, nil
}

func (s *AppointmentServiceImpl) checkAccess(ctx context.Context, callerID int64, role domain.UserRole, appointment *domain.Appointment) error {
	switch role {
	case domain.UserRoleAdmin:
		return nil
	case domain.UserRolePatient:
		if appointment.PatientID != callerID {
			return domain.NewForbiddenError("нет доступа к этой записи")
		}
		return nil
	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, callerID)
		if err != nil || doctor.ID != appointment.DoctorID {
			return domain.NewForbiddenError("нет доступа к этой записи")
		}
		return nil
	}
	return domain.NewForbiddenError("нет доступа к этой записи")
}

// UpdateStatus — переходы жизненного цикла записи врачом плюс обновление
// клинических полей. Переход в completed с заполненным диагнозом или текстом
// рецепта создает ровно один рецепт.
func (s *AppointmentServiceImpl) UpdateStatus(ctx context.Context, doctorUserID int64, id int64, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error) {
	doctor, err := s.doctorRepo.GetByUserID(ctx, doctorUserID)
	if err != nil {
		s.logger.Warn("профиль врача не найден", zap.Int64("userID", doctorUserID), zap.Error(err))
		return nil, domain.NewForbiddenError("требуется профиль врача")
	}

	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Владение перепроверяется на уровне данных, даже если граница его уже проверила.
	if appointment.DoctorID != doctor.ID {
		return nil, domain.NewForbiddenError("запись принадлежит другому врачу")
	}

	completing := false

	if dto.Status != nil {
		target := *dto.Status
		// Терминальный статус не допускает никаких переходов, включая повторную
		// отправку того же статуса: она молча переписала бы клинические поля.
		if appointment.Status.IsTerminal() {
			return nil, domain.NewConflictError(fmt.Sprintf("запись в статусе %s, переход невозможен", appointment.Status))
		}

		if target != appointment.Status {
			if !domain.CanTransition(appointment.Status, target) {
				return nil, domain.NewConflictError(fmt.Sprintf("недопустимый переход из %s в %s", appointment.Status, target))
			}

			if target == domain.AppointmentStatusCancelled {
				if dto.CancellationReason == nil || strings.TrimSpace(*dto.CancellationReason) == "" {
					return nil, domain.NewStateError("для отмены требуется причина")
				}
				actor := domain.CancelActorDoctor
				appointment.CancelledBy = &actor
				appointment.CancellationReason = strings.TrimSpace(*dto.CancellationReason)
			}

			completing = target == domain.AppointmentStatusCompleted
			appointment.Status = target
		}
	}

	if dto.Notes != nil {
		appointment.Notes = *dto.Notes
	}
	if dto.Diagnosis != nil {
		appointment.Diagnosis = *dto.Diagnosis
	}
	if dto.Symptoms != nil {
		appointment.Symptoms = *dto.Symptoms
	}
	if dto.PrescriptionText != nil {
		appointment.PrescriptionText = *dto.PrescriptionText
	}
	if dto.FollowUpDate != nil {
		followUp, err := validator.ParseDate(*dto.FollowUpDate)
		if err != nil {
			return nil, domain.NewValidationError("неверный формат даты повторного приема, ожидается YYYY-MM-DD")
		}
		appointment.FollowUpDate = &followUp
	}

	withClinicalData := appointment.Diagnosis != "" || appointment.PrescriptionText != ""

	if completing && withClinicalData {
		if existing, err := s.prescriptionRepo.GetByAppointmentID(ctx, appointment.ID); err == nil && existing != nil {
			return nil, domain.NewConflictError("рецепт для этой записи уже существует")
		} else if err != nil && !domain.IsKind(err, domain.ErrorKindNotFound) {
			s.logger.Error("ошибка проверки существующего рецепта", zap.Int64("appointmentID", appointment.ID), zap.Error(err))
			return nil, fmt.Errorf("ошибка проверки существующего рецепта: %w", err)
		}
	}

	if err := s.repo.Update(ctx, *appointment); err != nil {
		s.logger.Error("ошибка обновления записи", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка обновления записи: %w", err)
	}

	if completing && withClinicalData {
		medications := make([]domain.Medication, 0, len(dto.Medications))
		for _, m := range dto.Medications {
			medications = append(medications, domain.Medication{
				Name:         m.Name,
				Dosage:       m.Dosage,
				Frequency:    m.Frequency,
				Duration:     m.Duration,
				Quantity:     m.Quantity,
				Unit:         m.Unit,
				Instructions: m.Instructions,
			})
		}

		prescription := domain.Prescription{
			AppointmentID: appointment.ID,
			DoctorID:      appointment.DoctorID,
			PatientID:     appointment.PatientID,
			Diagnosis:     appointment.Diagnosis,
			Notes:         appointment.PrescriptionText,
			Medications:   medications,
		}

		// Предварительная проверка выше дает дружелюбную ошибку, уникальный
		// индекс по appointment_id закрывает гонку.
		created, err := s.prescriptionRepo.Create(ctx, prescription)
		if err != nil {
			s.logger.Error("ошибка создания рецепта", zap.Int64("appointmentID", appointment.ID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("рецепт создан",
			zap.Int64("appointmentID", appointment.ID),
			zap.String("number", created.Number))
	}

	return s.repo.GetByID(ctx, id)
}

// Cancel — отмена записи пациентом (только своей, из pending/confirmed), врачом
// (только своей) или администратором от имени системы.
func (s *AppointmentServiceImpl) Cancel(ctx context.Context, callerID int64, role domain.UserRole, id int64, reason string) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var actor domain.CancelActor
	switch role {
	case domain.UserRolePatient:
		if appointment.PatientID != callerID {
			return nil, domain.NewForbiddenError("нет доступа к этой записи")
		}
		actor = domain.CancelActorPatient
	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, callerID)
		if err != nil || doctor.ID != appointment.DoctorID {
			return nil, domain.NewForbiddenError("нет доступа к этой записи")
		}
		actor = domain.CancelActorDoctor
	case domain.UserRoleAdmin:
		actor = domain.CancelActorSystem
	default:
		return nil, domain.NewForbiddenError("нет доступа к этой записи")
	}

	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewStateError("для отмены требуется причина")
	}

	if !domain.CanTransition(appointment.Status, domain.AppointmentStatusCancelled) {
		return nil, domain.NewConflictError(fmt.Sprintf("запись в статусе %s не может быть отменена", appointment.Status))
	}

	appointment.Status = domain.AppointmentStatusCancelled
	appointment.CancelledBy = &actor
	appointment.CancellationReason = strings.TrimSpace(reason)

	if err := s.repo.Update(ctx, *appointment); err != nil {
		s.logger.Error("ошибка отмены записи", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("ошибка отмены записи: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentServiceImpl) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, int, error) {
	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка записей", zap.Error(err))
		return nil, 0, fmt.Errorf("ошибка получения списка записей: %w", err)
	}

	count, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения количества записей", zap.Error(err))
		return nil, 0, fmt.Errorf("ошибка получения количества записей: %w", err)
	}

	return appointments, count, nil
}
