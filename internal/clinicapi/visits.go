package clinicapi

import (
	"context"
	"net/url"
)

// ListVisits returns all visits.
func (s *Service) ListVisits(ctx context.Context, opts ListOptions) ([]Visit, error) {
	return listResource[Visit](ctx, s.gw, "/visits", opts.values())
}

// ListPatientVisits returns the visits for one patient.
func (s *Service) ListPatientVisits(ctx context.Context, patientID ID) ([]Visit, error) {
	path, err := itemPath("/patients", patientID)
	if err != nil {
		return nil, err
	}
	return listResource[Visit](ctx, s.gw, path+"/visits", url.Values{})
}

// CreateVisit records a visit.
func (s *Service) CreateVisit(ctx context.Context, v Visit) (Visit, error) {
	return createResource[Visit](ctx, s.gw, "/visits", v)
}
