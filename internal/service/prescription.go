package service

import (
	"context"

	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/internal/repository"
)

type PrescriptionServiceImpl struct {
	repo       repository.PrescriptionRepository
	doctorRepo repository.DoctorRepository
	logger     *zap.Logger
}

func NewPrescriptionService(repo repository.PrescriptionRepository, doctorRepo repository.DoctorRepository, logger *zap.Logger) *PrescriptionServiceImpl {
	return &PrescriptionServiceImpl{
		repo:       repo,
		doctorRepo: doctorRepo,
		logger:     logger,
	}
}

func (s *PrescriptionServiceImpl) GetByID(ctx context.Context, callerID int64, role domain.UserRole, id int64) (*domain.Prescription, error) {
	prescription, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(ctx, callerID, role, prescription); err != nil {
		return nil, err
	}

	return prescription, nil
}

func (s *PrescriptionServiceImpl) GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Prescription, error) {
	prescription, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return prescription, nil
}

func (s *PrescriptionServiceImpl) List(ctx context.Context, callerID int64, role domain.UserRole, limit, offset int) ([]domain.Prescription, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := domain.PrescriptionFilter{
		Limit:  limit,
		Offset: offset,
	}

	switch role {
	case domain.UserRolePatient:
		filter.PatientID = &callerID
	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, callerID)
		if err != nil {
			return nil, domain.NewForbiddenError("требуется профиль врача")
		}
		filter.DoctorID = &doctor.ID
	case domain.UserRoleAdmin:
	default:
		return nil, domain.NewForbiddenError("нет доступа к рецептам")
	}

	prescriptions, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка рецептов", zap.Error(err))
		return nil, err
	}

	return prescriptions, nil
}

func (s *PrescriptionServiceImpl) checkAccess(ctx context.Context, callerID int64, role domain.UserRole, prescription *domain.Prescription) error {
	switch role {
	case domain.UserRoleAdmin:
		return nil
	case domain.UserRolePatient:
		if prescription.PatientID == callerID {
			return nil
		}
	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, callerID)
		if err == nil && doctor.ID == prescription.DoctorID {
			return nil
		}
	}
	return domain.NewForbiddenError("нет доступа к этому рецепту")
}
