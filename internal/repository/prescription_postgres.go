package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibook/internal/domain"
)

type PrescriptionRepo struct {
	db *pgxpool.Pool
}

func NewPrescriptionRepository(db *pgxpool.Pool) *PrescriptionRepo {
	return &PrescriptionRepo{
		db: db,
	}
}

// Create присваивает рецепту последовательный читаемый номер из sequence базы.
// Номер назначается один раз и не переиспользуется. Уникальный индекс по
// appointment_id гарантирует не более одного рецепта на запись.
func (r *PrescriptionRepo) Create(ctx context.Context, prescription domain.Prescription) (*domain.Prescription, error) {
	medications, err := json.Marshal(prescription.Medications)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации препаратов: %w", err)
	}

	query := `
		INSERT INTO prescriptions (number, appointment_id, doctor_id, patient_id, diagnosis, notes,
		                           medications, lab_tests, recommendations, allergies, contraindications,
		                           created_at, updated_at)
		VALUES ('RX-' || LPAD(nextval('prescription_number_seq')::text, 6, '0'),
		        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, number
	`

	now := time.Now()
	created := prescription
	created.CreatedAt = now
	created.UpdatedAt = now

	err = r.db.QueryRow(ctx, query,
		prescription.AppointmentID,
		prescription.DoctorID,
		prescription.PatientID,
		prescription.Diagnosis,
		prescription.Notes,
		medications,
		prescription.LabTests,
		prescription.Recommendations,
		prescription.Allergies,
		prescription.Contraindications,
		now,
	).Scan(&created.ID, &created.Number)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.NewConflictError("рецепт для этой записи уже существует")
		}
		return nil, fmt.Errorf("ошибка создания рецепта: %w", err)
	}

	return &created, nil
}

const prescriptionSelect = `
	SELECT id, number, appointment_id, doctor_id, patient_id, diagnosis, notes,
	       medications, lab_tests, recommendations, allergies, contraindications,
	       created_at, updated_at
	FROM prescriptions
`

func scanPrescription(row pgx.Row) (*domain.Prescription, error) {
	var prescription domain.Prescription
	var medications []byte

	err := row.Scan(
		&prescription.ID,
		&prescription.Number,
		&prescription.AppointmentID,
		&prescription.DoctorID,
		&prescription.PatientID,
		&prescription.Diagnosis,
		&prescription.Notes,
		&medications,
		&prescription.LabTests,
		&prescription.Recommendations,
		&prescription.Allergies,
		&prescription.Contraindications,
		&prescription.CreatedAt,
		&prescription.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("рецепт не найден")
		}
		return nil, fmt.Errorf("ошибка сканирования рецепта: %w", err)
	}

	if err := json.Unmarshal(medications, &prescription.Medications); err != nil {
		return nil, fmt.Errorf("ошибка десериализации препаратов: %w", err)
	}

	return &prescription, nil
}

func (r *PrescriptionRepo) GetByID(ctx context.Context, id int64) (*domain.Prescription, error) {
	query := prescriptionSelect + " WHERE id = $1"
	return scanPrescription(r.db.QueryRow(ctx, query, id))
}

func (r *PrescriptionRepo) GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Prescription, error) {
	query := prescriptionSelect + " WHERE appointment_id = $1"
	return scanPrescription(r.db.QueryRow(ctx, query, appointmentID))
}

func (r *PrescriptionRepo) List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", argCount))
		args = append(args, *filter.PatientID)
		argCount++
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", argCount))
		args = append(args, *filter.DoctorID)
		argCount++
	}

	query := prescriptionSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

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

	prescriptions := make([]domain.Prescription, 0)
	for rows.Next() {
		prescription, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		prescriptions = append(prescriptions, *prescription)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return prescriptions, nil
}
