package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibook/internal/domain"
)

type ScheduleRepo struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{
		db: db,
	}
}

func (r *ScheduleRepo) Create(ctx context.Context, schedule domain.Schedule) (int64, error) {
	weekly, err := json.Marshal(schedule.Weekly)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации недельного расписания: %w", err)
	}

	emergency, err := json.Marshal(schedule.Policy.EmergencyWindows)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации экстренных окон: %w", err)
	}

	query := `
		INSERT INTO schedules (doctor_id, weekly, slot_duration_minutes, buffer_minutes, max_appointments_per_day,
		                       emergency_enabled, emergency_windows, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err = r.db.QueryRow(ctx, query,
		schedule.DoctorID,
		weekly,
		schedule.Policy.SlotDurationMinutes,
		schedule.Policy.BufferMinutes,
		schedule.Policy.MaxAppointmentsPerDay,
		schedule.Policy.EmergencyEnabled,
		emergency,
		schedule.Policy.IsActive,
		schedule.Policy.Notes,
		now,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.NewConflictError("расписание для этого врача уже существует")
		}
		return 0, fmt.Errorf("ошибка создания расписания: %w", err)
	}

	return id, nil
}

func (r *ScheduleRepo) GetByDoctorID(ctx context.Context, doctorID int64) (*domain.Schedule, error) {
	query := `
		SELECT id, doctor_id, weekly, slot_duration_minutes, buffer_minutes, max_appointments_per_day,
		       emergency_enabled, emergency_windows, is_active, notes, created_at, updated_at
		FROM schedules
		WHERE doctor_id = $1
	`

	var schedule domain.Schedule
	var weekly, emergency []byte

	err := r.db.QueryRow(ctx, query, doctorID).Scan(
		&schedule.ID,
		&schedule.DoctorID,
		&weekly,
		&schedule.Policy.SlotDurationMinutes,
		&schedule.Policy.BufferMinutes,
		&schedule.Policy.MaxAppointmentsPerDay,
		&schedule.Policy.EmergencyEnabled,
		&emergency,
		&schedule.Policy.IsActive,
		&schedule.Policy.Notes,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("расписание не найдено")
		}
		return nil, fmt.Errorf("ошибка получения расписания: %w", err)
	}

	if err := json.Unmarshal(weekly, &schedule.Weekly); err != nil {
		return nil, fmt.Errorf("ошибка десериализации недельного расписания: %w", err)
	}
	if err := json.Unmarshal(emergency, &schedule.Policy.EmergencyWindows); err != nil {
		return nil, fmt.Errorf("ошибка десериализации экстренных окон: %w", err)
	}

	return &schedule, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, schedule domain.Schedule) error {
	weekly, err := json.Marshal(schedule.Weekly)
	if err != nil {
		return fmt.Errorf("ошибка сериализации недельного расписания: %w", err)
	}

	emergency, err := json.Marshal(schedule.Policy.EmergencyWindows)
	if err != nil {
		return fmt.Errorf("ошибка сериализации экстренных окон: %w", err)
	}

	query := `
		UPDATE schedules
		SET weekly = $1, slot_duration_minutes = $2, buffer_minutes = $3, max_appointments_per_day = $4,
		    emergency_enabled = $5, emergency_windows = $6, is_active = $7, notes = $8, updated_at = $9
		WHERE id = $10
	`

	tag, err := r.db.Exec(ctx, query,
		weekly,
		schedule.Policy.SlotDurationMinutes,
		schedule.Policy.BufferMinutes,
		schedule.Policy.MaxAppointmentsPerDay,
		schedule.Policy.EmergencyEnabled,
		emergency,
		schedule.Policy.IsActive,
		schedule.Policy.Notes,
		time.Now(),
		schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления расписания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("расписание не найдено")
	}

	return nil
}
