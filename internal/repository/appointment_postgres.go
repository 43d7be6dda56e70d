package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibook/internal/domain"
)

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

// Create вставляет запись со статусом pending. Эксклюзивность слота обеспечивает
// частичный уникальный индекс по (doctor_id, date, time) для статусов
// pending/confirmed: из двух одновременных запросов на один слот вставку
// выполнит ровно один, второй получит ошибку нарушения уникальности.
func (r *AppointmentRepo) Create(ctx context.Context, appointment domain.Appointment) (int64, error) {
	query := `
		INSERT INTO appointments (patient_id, doctor_id, date, time, reason, status, consultation_fee, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Time,
		appointment.Reason,
		appointment.Status,
		appointment.ConsultationFee,
		appointment.PaymentStatus,
		now,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.NewConflictError("выбранный слот времени уже занят")
		}
		return 0, fmt.Errorf("ошибка создания записи на прием: %w", err)
	}

	return id, nil
}

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.date, a.time, a.reason, a.status,
	       a.consultation_fee, a.payment_status, a.notes, a.diagnosis, a.symptoms,
	       a.prescription_text, a.follow_up_date, a.cancelled_by, a.cancellation_reason,
	       a.created_at, a.updated_at,
	       pu.first_name || ' ' || pu.last_name AS patient_name,
	       du.first_name || ' ' || du.last_name AS doctor_name
	FROM appointments a
	JOIN users pu ON a.patient_id = pu.id
	JOIN doctors d ON a.doctor_id = d.id
	JOIN users du ON d.user_id = du.id
`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var appointment domain.Appointment
	var cancelledBy *string

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Reason,
		&appointment.Status,
		&appointment.ConsultationFee,
		&appointment.PaymentStatus,
		&appointment.Notes,
		&appointment.Diagnosis,
		&appointment.Symptoms,
		&appointment.PrescriptionText,
		&appointment.FollowUpDate,
		&cancelledBy,
		&appointment.CancellationReason,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
		&appointment.PatientName,
		&appointment.DoctorName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("запись на прием не найдена")
		}
		return nil, fmt.Errorf("ошибка сканирования записи на прием: %w", err)
	}

	if cancelledBy != nil {
		actor := domain.CancelActor(*cancelledBy)
		appointment.CancelledBy = &actor
	}

	return &appointment, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := appointmentSelect + " WHERE a.id = $1"
	return scanAppointment(r.db.QueryRow(ctx, query, id))
}

func (r *AppointmentRepo) Update(ctx context.Context, appointment domain.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, payment_status = $2, notes = $3, diagnosis = $4, symptoms = $5,
		    prescription_text = $6, follow_up_date = $7, cancelled_by = $8, cancellation_reason = $9,
		    updated_at = $10
		WHERE id = $11
	`

	var cancelledBy *string
	if appointment.CancelledBy != nil {
		actor := string(*appointment.CancelledBy)
		cancelledBy = &actor
	}

	tag, err := r.db.Exec(ctx, query,
		appointment.Status,
		appointment.PaymentStatus,
		appointment.Notes,
		appointment.Diagnosis,
		appointment.Symptoms,
		appointment.PrescriptionText,
		appointment.FollowUpDate,
		cancelledBy,
		appointment.CancellationReason,
		time.Now(),
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления записи на прием: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("запись на прием не найдена")
	}

	return nil
}

// ListActiveTimes возвращает времена начала слотов, занятых записями в статусах
// pending/confirmed на указанную дату.
func (r *AppointmentRepo) ListActiveTimes(ctx context.Context, doctorID int64, date time.Time) ([]string, error) {
	query := `
		SELECT time
		FROM appointments
		WHERE doctor_id = $1
		AND date = $2
		AND status IN ('pending', 'confirmed')
	`

	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}
	defer rows.Close()

	times := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слота: %w", err)
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return times, nil
}

func (r *AppointmentRepo) ExistsActive(ctx context.Context, doctorID int64, date time.Time, timeStr string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE doctor_id = $1
			AND date = $2
			AND time = $3
			AND status IN ('pending', 'confirmed')
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, doctorID, date, timeStr).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки доступности слота: %w", err)
	}

	return exists, nil
}

func (r *AppointmentRepo) ExistsCompleted(ctx context.Context, patientID, doctorID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE patient_id = $1
			AND doctor_id = $2
			AND status = 'completed'
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, patientID, doctorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки завершенных приемов: %w", err)
	}

	return exists, nil
}

func appointmentConditions(filter domain.AppointmentFilter, prefix string) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("%spatient_id = $%d", prefix, argCount))
		args = append(args, *filter.PatientID)
		argCount++
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("%sdoctor_id = $%d", prefix, argCount))
		args = append(args, *filter.DoctorID)
		argCount++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("%sstatus = $%d", prefix, argCount))
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("%sdate = $%d", prefix, argCount))
		args = append(args, *filter.Date)
		argCount++
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("%sdate >= $%d", prefix, argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("%sdate <= $%d", prefix, argCount))
		args = append(args, *filter.EndDate)
		argCount++
	}

	return conditions, args
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	conditions, args := appointmentConditions(filter, "a.")

	query := appointmentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.date DESC, a.time DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	conditions, args := appointmentConditions(filter, "")

	query := "SELECT COUNT(*) FROM appointments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}
