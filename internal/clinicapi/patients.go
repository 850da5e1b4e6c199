package clinicapi

import (
	"context"

	"github.com/wolfman30/clinicdesk/internal/gateway"
)

// PatientFilter narrows the patient list.
type PatientFilter struct {
	ListOptions
	Type PatientType
}

// ListPatients returns one page of patients.
func (s *Service) ListPatients(ctx context.Context, f PatientFilter) ([]Patient, gateway.Page, error) {
	q := f.values()
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	return pageResource[Patient](ctx, s.gw, "/patients", q)
}

// GetPatient fetches one patient.
func (s *Service) GetPatient(ctx context.Context, id ID) (Patient, error) {
	path, err := itemPath("/patients", id)
	if err != nil {
		return Patient{}, err
	}
	return getResource[Patient](ctx, s.gw, path)
}

// CreatePatient registers a patient.
func (s *Service) CreatePatient(ctx context.Context, p Patient) (Patient, error) {
	return createResource[Patient](ctx, s.gw, "/patients", p)
}

// UpdatePatient replaces a patient's details.
func (s *Service) UpdatePatient(ctx context.Context, p Patient) (Patient, error) {
	path, err := itemPath("/patients", p.ID)
	if err != nil {
		return Patient{}, err
	}
	return updateResource[Patient](ctx, s.gw, path, p)
}

// DeletePatient removes a patient.
func (s *Service) DeletePatient(ctx context.Context, id ID) error {
	path, err := itemPath("/patients", id)
	if err != nil {
		return err
	}
	return s.gw.Delete(ctx, path)
}
