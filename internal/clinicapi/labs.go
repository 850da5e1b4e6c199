package clinicapi

import (
	"context"
)

// ListLabTests returns every lab test, newest first as sent by the backend.
func (s *Service) ListLabTests(ctx context.Context) ([]LabTest, error) {
	return listResource[LabTest](ctx, s.gw, "/lab-tests", nil)
}

// CreateLabTest orders a lab test.
func (s *Service) CreateLabTest(ctx context.Context, t LabTest) (LabTest, error) {
	return createResource[LabTest](ctx, s.gw, "/lab-tests", t)
}

// DeleteLabTest cancels a lab test.
func (s *Service) DeleteLabTest(ctx context.Context, id ID) error {
	path, err := itemPath("/lab-tests", id)
	if err != nil {
		return err
	}
	return s.gw.Delete(ctx, path)
}

// ListLabResults returns every lab result with its nested test.
func (s *Service) ListLabResults(ctx context.Context) ([]LabResult, error) {
	return listResource[LabResult](ctx, s.gw, "/lab-results", nil)
}

// CreateLabResult records the result of a lab test.
func (s *Service) CreateLabResult(ctx context.Context, r LabResult) (LabResult, error) {
	return createResource[LabResult](ctx, s.gw, "/lab-results", r)
}
