package core_test

import (
	"context"
	"errors"
	"testing"

	"pharma-erp/internal/auth"
	"pharma-erp/internal/core"
)

func seedDoctor(t *testing.T, ctx context.Context, svc core.PatientService, username, password string) *core.Doctor {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	doctor, err := svc.CreateDoctor(ctx, username, hash, "Dr. "+username)
	if err != nil {
		t.Fatalf("CreateDoctor failed: %v", err)
	}
	return doctor
}

func TestDoctors_LoginCredentials(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPatientService(pool)
	ctx := context.Background()

	seedDoctor(t, ctx, svc, "mehta", "s3cret-pass")

	doctor, err := svc.GetDoctorByUsername(ctx, "mehta")
	if err != nil {
		t.Fatalf("GetDoctorByUsername failed: %v", err)
	}
	if !auth.VerifyPassword(doctor.PasswordHash, "s3cret-pass") {
		t.Error("stored hash must verify against the original password")
	}
	if auth.VerifyPassword(doctor.PasswordHash, "wrong") {
		t.Error("wrong password must not verify")
	}
	if doctor.PasswordHash == "s3cret-pass" {
		t.Error("password must not be stored in plaintext")
	}

	var notFound *core.NotFoundError
	if _, err := svc.GetDoctorByUsername(ctx, "nobody"); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError for unknown username, got %v", err)
	}
}

func TestPatients_ScopedToOwningDoctor(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPatientService(pool)
	ctx := context.Background()

	drA := seedDoctor(t, ctx, svc, "mehta", "pass-a")
	drB := seedDoctor(t, ctx, svc, "iyer", "pass-b")

	patient, err := svc.CreatePatient(ctx, core.Patient{
		DoctorID:     drA.ID,
		Name:         "Ravi Kulkarni",
		Age:          54,
		Gender:       "male",
		Diagnosis:    "hypertension",
		Prescription: "Amlodipine 5mg OD",
		VisitDate:    "2026-08-28",
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	// The owning doctor sees the record.
	got, err := svc.GetPatient(ctx, drA.ID, patient.ID)
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if got.Name != "Ravi Kulkarni" {
		t.Errorf("name = %q", got.Name)
	}

	// Another doctor does not, not even by id.
	var notFound *core.NotFoundError
	if _, err := svc.GetPatient(ctx, drB.ID, patient.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError across doctors, got %v", err)
	}
	if err := svc.DeletePatient(ctx, drB.ID, patient.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError deleting across doctors, got %v", err)
	}

	listA, err := svc.ListPatients(ctx, drA.ID)
	if err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	if len(listA) != 1 {
		t.Errorf("doctor A list = %d, want 1", len(listA))
	}
	listB, err := svc.ListPatients(ctx, drB.ID)
	if err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	if len(listB) != 0 {
		t.Errorf("doctor B list = %d, want 0", len(listB))
	}
}

func TestPatients_UpdateAndDelete(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := core.NewPatientService(pool)
	ctx := context.Background()

	dr := seedDoctor(t, ctx, svc, "mehta", "pass")
	patient, err := svc.CreatePatient(ctx, core.Patient{
		DoctorID:  dr.ID,
		Name:      "Asha Pawar",
		VisitDate: "2026-08-28",
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	patient.Diagnosis = "seasonal flu"
	patient.Prescription = "Paracetamol 500mg TDS"
	updated, err := svc.UpdatePatient(ctx, *patient)
	if err != nil {
		t.Fatalf("UpdatePatient failed: %v", err)
	}
	if updated.Diagnosis != "seasonal flu" {
		t.Errorf("diagnosis = %q", updated.Diagnosis)
	}

	if err := svc.DeletePatient(ctx, dr.ID, patient.ID); err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}
	var notFound *core.NotFoundError
	if _, err := svc.GetPatient(ctx, dr.ID, patient.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
}
