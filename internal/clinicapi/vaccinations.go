package clinicapi

import (
	"context"
	"net/url"
)

// ListVaccinations returns all recorded doses.
func (s *Service) ListVaccinations(ctx context.Context, opts ListOptions) ([]Vaccination, error) {
	return listResource[Vaccination](ctx, s.gw, "/vaccinations", opts.values())
}

// ListPatientVaccinations returns the doses given to one patient.
func (s *Service) ListPatientVaccinations(ctx context.Context, patientID ID) ([]Vaccination, error) {
	if _, err := itemPath("/patients", patientID); err != nil {
		return nil, err
	}
	return listResource[Vaccination](ctx, s.gw, "/vaccinations", url.Values{"patient_id": {string(patientID)}})
}

// RecordVaccination stores an administered dose.
func (s *Service) RecordVaccination(ctx context.Context, v Vaccination) (Vaccination, error) {
	return createResource[Vaccination](ctx, s.gw, "/vaccinations", v)
}
