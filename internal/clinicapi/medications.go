package clinicapi

import "context"

// ListMedications returns the dispensary stock.
func (s *Service) ListMedications(ctx context.Context, opts ListOptions) ([]Medication, error) {
	return listResource[Medication](ctx, s.gw, "/medications", opts.values())
}

// CreateMedication adds a stock item.
func (s *Service) CreateMedication(ctx context.Context, m Medication) (Medication, error) {
	return createResource[Medication](ctx, s.gw, "/medications", m)
}

// UpdateMedication replaces a stock item.
func (s *Service) UpdateMedication(ctx context.Context, m Medication) (Medication, error) {
	path, err := itemPath("/medications", m.ID)
	if err != nil {
		return Medication{}, err
	}
	return updateResource[Medication](ctx, s.gw, path, m)
}

// DeleteMedication removes a stock item.
func (s *Service) DeleteMedication(ctx context.Context, id ID) error {
	path, err := itemPath("/medications", id)
	if err != nil {
		return err
	}
	return s.gw.Delete(ctx, path)
}
