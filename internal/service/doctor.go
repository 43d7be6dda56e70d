package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"medibook/internal/domain"
	"medibook/internal/repository"
	"medibook/internal/storage"
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const maxPhotoSize = 5 * 1024 * 1024

type DoctorServiceImpl struct {
	repo        repository.DoctorRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

func NewDoctorService(repo repository.DoctorRepository, userRepo repository.UserRepository, fileStorage storage.FileStorage, logger *zap.Logger) *DoctorServiceImpl {
	return &DoctorServiceImpl{
		repo:        repo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

func (s *DoctorServiceImpl) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if user.Role != domain.UserRoleDoctor {
		return 0, domain.NewForbiddenError("профиль врача доступен только пользователям с ролью doctor")
	}

	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil && existing != nil {
		return 0, domain.NewConflictError("профиль врача уже существует")
	}

	id, err := s.repo.Create(ctx, userID, dto)
	if err != nil {
		s.logger.Error("ошибка создания профиля врача", zap.Int64("userID", userID), zap.Error(err))
		return 0, err
	}

	s.logger.Info("создан профиль врача", zap.Int64("doctorID", id), zap.Int64("userID", userID))
	return id, nil
}

func (s *DoctorServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	doctor, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("врач не найден", zap.Int64("doctorID", id), zap.Error(err))
		return nil, err
	}
	return doctor, nil
}

func (s *DoctorServiceImpl) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	doctor, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *DoctorServiceImpl) Update(ctx context.Context, userID int64, dto domain.UpdateDoctorDTO) error {
	doctor, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return domain.NewForbiddenError("требуется профиль врача")
	}

	if err := s.repo.Update(ctx, doctor.ID, dto); err != nil {
		s.logger.Error("ошибка обновления профиля врача", zap.Int64("doctorID", doctor.ID), zap.Error(err))
		return err
	}

	return nil
}

func (s *DoctorServiceImpl) Verify(ctx context.Context, doctorID int64, verified bool) error {
	if err := s.repo.SetVerified(ctx, doctorID, verified); err != nil {
		s.logger.Error("ошибка изменения статуса верификации", zap.Int64("doctorID", doctorID), zap.Error(err))
		return err
	}

	s.logger.Info("изменен статус верификации врача",
		zap.Int64("doctorID", doctorID),
		zap.Bool("verified", verified),
	)
	return nil
}

func (s *DoctorServiceImpl) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	doctors, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка врачей", zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Warn("ошибка подсчета врачей", zap.Error(err))
		total = len(doctors)
	}

	return doctors, total, nil
}

func (s *DoctorServiceImpl) UploadProfilePhoto(ctx context.Context, userID int64, photo []byte, filename string) (string, error) {
	doctor, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", domain.NewForbiddenError("требуется профиль врача")
	}

	if len(photo) == 0 {
		return "", domain.NewValidationError("файл пуст")
	}
	if len(photo) > maxPhotoSize {
		return "", domain.NewValidationError("размер файла превышает 5 МБ")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedPhotoExtensions[ext] {
		return "", domain.NewValidationError("недопустимый формат файла, разрешены: jpg, jpeg, png, webp")
	}

	if s.fileStorage == nil {
		return "", domain.NewInternalError("файловое хранилище не настроено", nil)
	}

	objectName := fmt.Sprintf("doctors/%d/photo%s", doctor.ID, ext)
	photoURL, err := s.fileStorage.UploadFile(ctx, photo, objectName)
	if err != nil {
		s.logger.Error("ошибка загрузки фото", zap.Int64("doctorID", doctor.ID), zap.Error(err))
		return "", fmt.Errorf("ошибка загрузки файла: %w", err)
	}

	if err := s.repo.UpdateProfilePhoto(ctx, doctor.ID, photoURL); err != nil {
		s.logger.Error("ошибка сохранения ссылки на фото", zap.Int64("doctorID", doctor.ID), zap.Error(err))
		return "", err
	}

	return photoURL, nil
}

func (s *DoctorServiceImpl) DeleteProfilePhoto(ctx context.Context, userID int64) error {
	doctor, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return domain.NewForbiddenError("требуется профиль врача")
	}

	if doctor.ProfilePhotoURL == "" {
		return nil
	}

	if s.fileStorage != nil {
		if err := s.fileStorage.DeleteFile(ctx, doctor.ProfilePhotoURL); err != nil {
			s.logger.Warn("ошибка удаления файла из хранилища", zap.Error(err))
		}
	}

	if err := s.repo.UpdateProfilePhoto(ctx, doctor.ID, ""); err != nil {
		s.logger.Error("ошибка очистки ссылки на фото", zap.Int64("doctorID", doctor.ID), zap.Error(err))
		return err
	}

	return nil
}
