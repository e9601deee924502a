package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Doctor is a doctor-portal account. PasswordHash is a bcrypt hash; the
// portal never stores or compares plaintext credentials.
type Doctor struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Patient is a patient record owned by one doctor.
type Patient struct {
	ID           string    `json:"id"`
	DoctorID     string    `json:"doctor_id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription string    `json:"prescription"`
	VisitDate    string    `json:"visit_date"` // YYYY-MM-DD
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PatientService serves the doctor portal: doctor lookup for login and
// per-doctor patient records.
type PatientService interface {
	GetDoctorByUsername(ctx context.Context, username string) (*Doctor, error)
	CreateDoctor(ctx context.Context, username, passwordHash, name string) (*Doctor, error)

	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	GetPatient(ctx context.Context, doctorID, id string) (*Patient, error)
	ListPatients(ctx context.Context, doctorID string) ([]Patient, error)
	UpdatePatient(ctx context.Context, p Patient) (*Patient, error)
	DeletePatient(ctx context.Context, doctorID, id string) error
}

type patientService struct {
	pool *pgxpool.Pool
}

// NewPatientService constructs a PatientService backed by PostgreSQL.
func NewPatientService(pool *pgxpool.Pool) PatientService {
	return &patientService{pool: pool}
}

func (s *patientService) GetDoctorByUsername(ctx context.Context, username string) (*Doctor, error) {
	var d Doctor
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, name, created_at
		FROM doctors
		WHERE username = $1
	`, username).Scan(&d.ID, &d.Username, &d.PasswordHash, &d.Name, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "doctor", Ref: username}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch doctor %q: %w", username, err)
	}
	return &d, nil
}

func (s *patientService) CreateDoctor(ctx context.Context, username, passwordHash, name string) (*Doctor, error) {
	if username == "" {
		return nil, NewValidationError("username", "username is required")
	}
	if passwordHash == "" {
		return nil, NewValidationError("password", "password is required")
	}

	var d Doctor
	err := s.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, username, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, name, created_at
	`, uuid.NewString(), username, passwordHash, name).Scan(
		&d.ID, &d.Username, &d.PasswordHash, &d.Name, &d.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return &d, nil
}

func (s *patientService) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.DoctorID == "" {
		return nil, NewValidationError("doctor_id", "doctor is required")
	}
	if p.Name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if p.VisitDate == "" {
		p.VisitDate = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", p.VisitDate); err != nil {
		return nil, NewValidationError("visit_date", "must be YYYY-MM-DD")
	}

	var out Patient
	err := s.pool.QueryRow(ctx, `
		INSERT INTO patients (id, doctor_id, name, age, gender, phone, address, diagnosis, prescription, visit_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, doctor_id, name, age, gender, phone, address, diagnosis, prescription, visit_date::text, notes, created_at, updated_at
	`, uuid.NewString(), p.DoctorID, p.Name, p.Age, p.Gender, p.Phone, p.Address,
		p.Diagnosis, p.Prescription, p.VisitDate, p.Notes).Scan(
		&out.ID, &out.DoctorID, &out.Name, &out.Age, &out.Gender, &out.Phone, &out.Address,
		&out.Diagnosis, &out.Prescription, &out.VisitDate, &out.Notes, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return &out, nil
}

func (s *patientService) GetPatient(ctx context.Context, doctorID, id string) (*Patient, error) {
	var p Patient
	err := s.pool.QueryRow(ctx, `
		SELECT id, doctor_id, name, age, gender, phone, address, diagnosis, prescription, visit_date::text, notes, created_at, updated_at
		FROM patients
		WHERE doctor_id = $1 AND id = $2
	`, doctorID, id).Scan(
		&p.ID, &p.DoctorID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Address,
		&p.Diagnosis, &p.Prescription, &p.VisitDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "patient", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient %s: %w", id, err)
	}
	return &p, nil
}

func (s *patientService) ListPatients(ctx context.Context, doctorID string) ([]Patient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, doctor_id, name, age, gender, phone, address, diagnosis, prescription, visit_date::text, notes, created_at, updated_at
		FROM patients
		WHERE doctor_id = $1
		ORDER BY visit_date DESC, name
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.DoctorID, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Address,
			&p.Diagnosis, &p.Prescription, &p.VisitDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (s *patientService) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.Name == "" {
		return nil, NewValidationError("name", "name is required")
	}
	if p.VisitDate != "" {
		if _, err := time.Parse("2006-01-02", p.VisitDate); err != nil {
			return nil, NewValidationError("visit_date", "must be YYYY-MM-DD")
		}
	}

	var out Patient
	err := s.pool.QueryRow(ctx, `
		UPDATE patients
		SET name = $1, age = $2, gender = $3, phone = $4, address = $5,
		    diagnosis = $6, prescription = $7, visit_date = COALESCE(NULLIF($8, '')::date, visit_date),
		    notes = $9, updated_at = NOW()
		WHERE doctor_id = $10 AND id = $11
		RETURNING id, doctor_id, name, age, gender, phone, address, diagnosis, prescription, visit_date::text, notes, created_at, updated_at
	`, p.Name, p.Age, p.Gender, p.Phone, p.Address, p.Diagnosis, p.Prescription, p.VisitDate,
		p.Notes, p.DoctorID, p.ID).Scan(
		&out.ID, &out.DoctorID, &out.Name, &out.Age, &out.Gender, &out.Phone, &out.Address,
		&out.Diagnosis, &out.Prescription, &out.VisitDate, &out.Notes, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "patient", Ref: p.ID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update patient %s: %w", p.ID, err)
	}
	return &out, nil
}

func (s *patientService) DeletePatient(ctx context.Context, doctorID, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM patients WHERE doctor_id = $1 AND id = $2", doctorID, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "patient", Ref: id}
	}
	return nil
}
