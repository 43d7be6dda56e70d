package service

import (
	"context"

	"go.uber.org/zap"

	"medibook/config"
	"medibook/internal/domain"
	"medibook/internal/repository"
	"medibook/internal/storage"
)

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
}

type Services struct {
	User         UserService
	Auth         AuthService
	Doctor       DoctorService
	Schedule     ScheduleService
	Appointment  AppointmentService
	Prescription PrescriptionService
	Review       ReviewService
}

func NewServices(deps Deps) *Services {
	return &Services{
		User:         NewUserService(deps.Repos.User, deps.Repos.Auth, deps.Logger),
		Auth:         NewAuthService(deps.Repos.Auth, deps.Repos.User, deps.Config.JWT, deps.Logger),
		Doctor:       NewDoctorService(deps.Repos.Doctor, deps.Repos.User, deps.FileStorage, deps.Logger),
		Schedule:     NewScheduleService(deps.Repos.Schedule, deps.Repos.Doctor, deps.Logger),
		Appointment:  NewAppointmentService(deps.Repos.Appointment, deps.Repos.Schedule, deps.Repos.Doctor, deps.Repos.User, deps.Repos.Prescription, deps.Logger),
		Prescription: NewPrescriptionService(deps.Repos.Prescription, deps.Repos.Doctor, deps.Logger),
		Review:       NewReviewService(deps.Repos.Review, deps.Repos.Doctor, deps.Repos.Appointment, deps.Logger),
	}
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthService interface {
	Register(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error)
	CleanupExpiredSessions(ctx context.Context) error
}

type DoctorService interface {
	Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error)
	Update(ctx context.Context, userID int64, dto domain.UpdateDoctorDTO) error
	Verify(ctx context.Context, doctorID int64, verified bool) error
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, int, error)
	UploadProfilePhoto(ctx context.Context, userID int64, photo []byte, filename string) (string, error)
	DeleteProfilePhoto(ctx context.Context, userID int64) error
}

type ScheduleService interface {
	GetByDoctorID(ctx context.Context, doctorID int64) (*domain.Schedule, error)
	Update(ctx context.Context, doctorID int64, dto domain.UpdateScheduleDTO) (*domain.Schedule, error)
}

type AppointmentService interface {
	Create(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (*domain.Appointment, error)
	GetByID(ctx context.Context, callerID int64, role domain.UserRole, id int64) (*domain.Appointment, error)
	GetAvailableSlots(ctx context.Context, doctorID int64, date string) ([]domain.Slot, error)
	UpdateStatus(ctx context.Context, doctorUserID int64, id int64, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error)
	Cancel(ctx context.Context, callerID int64, role domain.UserRole, id int64, reason string) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, int, error)
}

type PrescriptionService interface {
	GetByID(ctx context.Context, callerID int64, role domain.UserRole, id int64) (*domain.Prescription, error)
	GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Prescription, error)
	List(ctx context.Context, callerID int64, role domain.UserRole, limit, offset int) ([]domain.Prescription, error)
}

type ReviewService interface {
	Create(ctx context.Context, patientID int64, dto domain.CreateReviewDTO) (int64, error)
	GetByDoctorID(ctx context.Context, doctorID int64, limit, offset int) ([]domain.Review, int, error)
	Delete(ctx context.Context, callerID int64, role domain.UserRole, id int64) error
}
