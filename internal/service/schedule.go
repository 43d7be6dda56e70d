package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/internal/repository"
)

type ScheduleServiceImpl struct {
	repo       repository.ScheduleRepository
	doctorRepo repository.DoctorRepository
	logger     *zap.Logger
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	doctorRepo repository.DoctorRepository,
	logger *zap.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		repo:       repo,
		doctorRepo: doctorRepo,
		logger:     logger,
	}
}

// GetByDoctorID возвращает расписание врача, при первом обращении материализуя
// пустое расписание по умолчанию. Материализация сохраняется, поэтому повторные
// чтения идемпотентны.
func (s *ScheduleServiceImpl) GetByDoctorID(ctx context.Context, doctorID int64) (*domain.Schedule, error) {
	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		s.logger.Error("врач не найден при получении расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, err
	}

	schedule, err := s.repo.GetByDoctorID(ctx, doctorID)
	if err == nil {
		return schedule, nil
	}
	if !domain.IsKind(err, domain.ErrorKindNotFound) {
		s.logger.Error("ошибка получения расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения расписания: %w", err)
	}

	created := domain.DefaultSchedule(doctorID)
	if _, err := s.repo.Create(ctx, created); err != nil {
		// Параллельный запрос мог материализовать расписание первым.
		if !domain.IsKind(err, domain.ErrorKindConflict) {
			s.logger.Error("ошибка создания расписания по умолчанию", zap.Int64("doctorID", doctorID), zap.Error(err))
			return nil, fmt.Errorf("ошибка создания расписания: %w", err)
		}
	}

	schedule, err = s.repo.GetByDoctorID(ctx, doctorID)
	if err != nil {
		s.logger.Error("ошибка получения материализованного расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения расписания: %w", err)
	}

	return schedule, nil
}

// Update сливает только переданные поля, валидирует итоговое состояние целиком
// и сохраняет его. При ошибке валидации прежнее состояние остается нетронутым.
func (s *ScheduleServiceImpl) Update(ctx context.Context, doctorID int64, dto domain.UpdateScheduleDTO) (*domain.Schedule, error) {
	schedule, err := s.GetByDoctorID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if dto.Weekly != nil {
		merged := domain.NewWeeklySchedule()
		for day, windows := range *dto.Weekly {
			merged[day] = windows
		}
		schedule.Weekly = merged
	}
	if dto.SlotDurationMinutes != nil {
		schedule.Policy.SlotDurationMinutes = *dto.SlotDurationMinutes
	}
	if dto.BufferMinutes != nil {
		schedule.Policy.BufferMinutes = *dto.BufferMinutes
	}
	if dto.MaxAppointmentsPerDay != nil {
		schedule.Policy.MaxAppointmentsPerDay = *dto.MaxAppointmentsPerDay
	}
	if dto.EmergencyEnabled != nil {
		schedule.Policy.EmergencyEnabled = *dto.EmergencyEnabled
	}
	if dto.EmergencyWindows != nil {
		schedule.Policy.EmergencyWindows = *dto.EmergencyWindows
	}
	if dto.IsActive != nil {
		schedule.Policy.IsActive = *dto.IsActive
	}
	if dto.Notes != nil {
		schedule.Policy.Notes = *dto.Notes
	}

	if err := schedule.Validate(); err != nil {
		s.logger.Warn("ошибка валидации расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, err
	}

	schedule.Weekly.Normalize()

	if err := s.repo.Update(ctx, *schedule); err != nil {
		s.logger.Error("ошибка обновления расписания", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, fmt.Errorf("ошибка обновления расписания: %w", err)
	}

	return schedule, nil
}
