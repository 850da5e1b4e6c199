package clinicapi

import (
	"context"
	"time"
)

// AppointmentFilter narrows the appointment list.
type AppointmentFilter struct {
	ListOptions
	Date   time.Time
	Status string
}

// ListAppointments returns appointments, optionally for a single day.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	q := f.values()
	if !f.Date.IsZero() {
		q.Set("date", f.Date.Format("2006-01-02"))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return listResource[Appointment](ctx, s.gw, "/appointments", q)
}

// CreateAppointment books an appointment.
func (s *Service) CreateAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	return createResource[Appointment](ctx, s.gw, "/appointments", a)
}

// UpdateAppointmentStatus marks an appointment completed, cancelled, etc.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id ID, status string) (Appointment, error) {
	path, err := itemPath("/appointments", id)
	if err != nil {
		return Appointment{}, err
	}
	return updateResource[Appointment](ctx, s.gw, path, map[string]string{"status": status})
}

// DeleteAppointment removes an appointment.
func (s *Service) DeleteAppointment(ctx context.Context, id ID) error {
	path, err := itemPath("/appointments", id)
	if err != nil {
		return err
	}
	return s.gw.Delete(ctx, path)
}
