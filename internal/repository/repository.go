package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"medibook/internal/domain"
)

type Repositories struct {
	User         UserRepository
	Auth         AuthRepository
	Doctor       DoctorRepository
	Schedule     ScheduleRepository
	Appointment  AppointmentRepository
	Prescription PrescriptionRepository
	Review       ReviewRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Auth:         NewAuthRepository(db),
		Doctor:       NewDoctorRepository(db),
		Schedule:     NewScheduleRepository(db),
		Appointment:  NewAppointmentRepository(db),
		Prescription: NewPrescriptionRepository(db),
		Review:       NewReviewRepository(db),
	}
}

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUserID(ctx context.Context, userID int64) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, userID int64, doctor domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error)
	Update(ctx context.Context, id int64, doctor domain.UpdateDoctorDTO) error
	SetVerified(ctx context.Context, id int64, verified bool) error
	UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error)
	CountByFilter(ctx context.Context, filter domain.DoctorFilter) (int, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule domain.Schedule) (int64, error)
	GetByDoctorID(ctx context.Context, doctorID int64) (*domain.Schedule, error)
	Update(ctx context.Context, schedule domain.Schedule) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment domain.Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	Update(ctx context.Context, appointment domain.Appointment) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error)
	ListActiveTimes(ctx context.Context, doctorID int64, date time.Time) ([]string, error)
	ExistsActive(ctx context.Context, doctorID int64, date time.Time, timeStr string) (bool, error)
	ExistsCompleted(ctx context.Context, patientID, doctorID int64) (bool, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, prescription domain.Prescription) (*domain.Prescription, error)
	GetByID(ctx context.Context, id int64) (*domain.Prescription, error)
	GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Prescription, error)
	List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, patientID int64, review domain.CreateReviewDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error)
	CountByFilter(ctx context.Context, filter domain.ReviewFilter) (int, error)
}
