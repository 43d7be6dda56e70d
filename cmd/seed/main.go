package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"medibook/config"
	"medibook/internal/domain"
	"medibook/internal/repository"
	"medibook/pkg/auth"
	"medibook/pkg/database"
	"medibook/pkg/logger"
)

var specializations = []string{
	"Терапевт",
	"Кардиолог",
	"Невролог",
	"Офтальмолог",
	"Дерматолог",
	"Педиатр",
}

func main() {
	doctors := flag.Int("doctors", 5, "количество врачей")
	patients := flag.Int("patients", 20, "количество пациентов")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, "./migrations", log); err != nil {
		log.Fatal("ошибка при выполнении миграций", zap.Error(err))
	}

	repos := repository.NewRepositories(db)

	passwordHash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatal("ошибка хеширования пароля", zap.Error(err))
	}

	adminID, err := repos.User.Create(ctx, domain.CreateUserDTO{
		FirstName: "Админ",
		LastName:  "Системы",
		Email:     "admin@medibook.local",
		Phone:     "+70000000000",
		Password:  passwordHash,
		Role:      domain.UserRoleAdmin,
	})
	if err != nil {
		log.Warn("администратор не создан, возможно уже существует", zap.Error(err))
	} else {
		log.Info("создан администратор", zap.Int64("userID", adminID))
	}

	doctorIDs := make([]int64, 0, *doctors)
	patientIDs := make([]int64, 0, *patients)

	for i := 0; i < *doctors; i++ {
		userID, err := repos.User.Create(ctx, domain.CreateUserDTO{
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Email:     fmt.Sprintf("doctor%d@medibook.local", i+1),
			Phone:     fmt.Sprintf("+7901%07d", i+1),
			Password:  passwordHash,
			Role:      domain.UserRoleDoctor,
		})
		if err != nil {
			log.Warn("врач не создан", zap.Int("n", i+1), zap.Error(err))
			continue
		}

		doctorID, err := repos.Doctor.Create(ctx, userID, domain.CreateDoctorDTO{
			Specialization:  specializations[i%len(specializations)],
			Description:     gofakeit.Sentence(12),
			ExperienceYears: gofakeit.Number(1, 30),
			ConsultationFee: float64(gofakeit.Number(10, 60)) * 100,
		})
		if err != nil {
			log.Warn("профиль врача не создан", zap.Int64("userID", userID), zap.Error(err))
			continue
		}

		if err := repos.Doctor.SetVerified(ctx, doctorID, true); err != nil {
			log.Warn("не удалось верифицировать врача", zap.Int64("doctorID", doctorID), zap.Error(err))
		}

		schedule := domain.DefaultSchedule(doctorID)
		for _, day := range []domain.Weekday{domain.WeekdayMonday, domain.WeekdayTuesday, domain.WeekdayWednesday, domain.WeekdayThursday, domain.WeekdayFriday} {
			schedule.Weekly[day] = []domain.TimeWindow{
				{Start: "09:00", End: "13:00"},
				{Start: "14:00", End: "18:00"},
			}
		}

		if _, err := repos.Schedule.Create(ctx, schedule); err != nil {
			log.Warn("расписание не создано", zap.Int64("doctorID", doctorID), zap.Error(err))
		}

		doctorIDs = append(doctorIDs, doctorID)
		log.Info("создан врач", zap.Int64("doctorID", doctorID), zap.Int64("userID", userID))
	}

	for i := 0; i < *patients; i++ {
		userID, err := repos.User.Create(ctx, domain.CreateUserDTO{
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Email:     fmt.Sprintf("patient%d@medibook.local", i+1),
			Phone:     fmt.Sprintf("+7902%07d", i+1),
			Password:  passwordHash,
			Role:      domain.UserRolePatient,
		})
		if err != nil {
			log.Warn("пациент не создан", zap.Int("n", i+1), zap.Error(err))
			continue
		}
		patientIDs = append(patientIDs, userID)
		log.Info("создан пациент", zap.Int64("userID", userID))
	}

	seedAppointments(ctx, repos, doctorIDs, patientIDs, log)

	log.Info("заполнение тестовыми данными завершено")
}

// seedAppointments бронирует по одному слоту на ближайшие будни: уникальный
// индекс по активному слоту сам отсеет дубли при повторном запуске.
func seedAppointments(ctx context.Context, repos *repository.Repositories, doctorIDs, patientIDs []int64, log *zap.Logger) {
	if len(doctorIDs) == 0 || len(patientIDs) == 0 {
		return
	}

	date := domain.NormalizeDate(time.Now().AddDate(0, 0, 1))
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}

	times := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	created := 0
	for i, patientID := range patientIDs {
		if i >= len(times)*len(doctorIDs) {
			break
		}
		doctorID := doctorIDs[i%len(doctorIDs)]

		doctor, err := repos.Doctor.GetByID(ctx, doctorID)
		if err != nil {
			continue
		}

		_, err = repos.Appointment.Create(ctx, domain.Appointment{
			PatientID:       patientID,
			DoctorID:        doctorID,
			Date:            date,
			Time:            times[(i/len(doctorIDs))%len(times)],
			Reason:          gofakeit.Sentence(6),
			Status:          domain.AppointmentStatusPending,
			ConsultationFee: doctor.ConsultationFee,
			PaymentStatus:   domain.PaymentStatusPending,
		})
		if err != nil {
			log.Warn("запись не создана", zap.Int64("patientID", patientID), zap.Error(err))
			continue
		}
		created++
	}

	log.Info("созданы демо-записи", zap.Int("count", created))
}
