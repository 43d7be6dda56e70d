package service

import (
	"context"

	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/internal/repository"
)

type ReviewServiceImpl struct {
	repo            repository.ReviewRepository
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	logger          *zap.Logger
}

func NewReviewService(repo repository.ReviewRepository, doctorRepo repository.DoctorRepository, appointmentRepo repository.AppointmentRepository, logger *zap.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		repo:            repo,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

func (s *ReviewServiceImpl) Create(ctx context.Context, patientID int64, dto domain.CreateReviewDTO) (int64, error) {
	if _, err := s.doctorRepo.GetByID(ctx, dto.DoctorID); err != nil {
		return 0, err
	}

	completed, err := s.appointmentRepo.ExistsCompleted(ctx, patientID, dto.DoctorID)
	if err != nil {
		s.logger.Error("ошибка проверки завершенных записей", zap.Error(err))
		return 0, err
	}
	if !completed {
		return 0, domain.NewForbiddenError("отзыв можно оставить только после завершенного приема")
	}

	id, err := s.repo.Create(ctx, patientID, dto)
	if err != nil {
		s.logger.Error("ошибка создания отзыва",
			zap.Int64("patientID", patientID),
			zap.Int64("doctorID", dto.DoctorID),
			zap.Error(err),
		)
		return 0, err
	}

	return id, nil
}

func (s *ReviewServiceImpl) GetByDoctorID(ctx context.Context, doctorID int64, limit, offset int) ([]domain.Review, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		return nil, 0, err
	}

	filter := domain.ReviewFilter{
		DoctorID: &doctorID,
		Limit:    limit,
		Offset:   offset,
	}

	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения отзывов", zap.Int64("doctorID", doctorID), zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Warn("ошибка подсчета отзывов", zap.Error(err))
		total = len(reviews)
	}

	return reviews, total, nil
}

func (s *ReviewServiceImpl) Delete(ctx context.Context, callerID int64, role domain.UserRole, id int64) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if role != domain.UserRoleAdmin && review.PatientID != callerID {
		return domain.NewForbiddenError("нет доступа к этому отзыву")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("ошибка удаления отзыва", zap.Int64("reviewID", id), zap.Error(err))
		return err
	}

	return nil
}
