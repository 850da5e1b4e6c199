package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/session"
)

func TestEndpointCalls(t *testing.T) {
	day := DateOnly(2026, 10, 19)

	tests := []struct {
		name   string
		method string
		path   string
		query  string
		reply  string
		call   func(context.Context, *Service) (any, error)
		body   func(t *testing.T, body map[string]any)
		want   any
	}{
		{
			name: "create patient", method: http.MethodPost, path: "/api/patients",
			reply: `{"success":true,"data":{"id":21,"first_name":"Grace","last_name":"N","patient_type":"child"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				p, err := s.CreatePatient(ctx, Patient{FirstName: "Grace", LastName: "N", Type: PatientChild, DateOfBirth: day})
				return p.ID, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Grace", body["first_name"])
				assert.Equal(t, "child", body["patient_type"])
				assert.Equal(t, "2026-10-19T00:00:00Z", body["date_of_birth"])
				assert.Nil(t, body["id"])
			},
			want: ID("21"),
		},
		{
			name: "list patient visits", method: http.MethodGet, path: "/api/patients/7/visits",
			reply: `{"data":[{"id":1,"patient_id":7,"reason":"ANC"},{"id":2,"patient_id":7}]}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				v, err := s.ListPatientVisits(ctx, "7")
				return len(v), err
			},
			want: 2,
		},
		{
			name: "create visit", method: http.MethodPost, path: "/api/visits",
			reply: `{"id":3,"patient_id":7,"reason":"ANC"}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				v, err := s.CreateVisit(ctx, Visit{PatientID: "7", VisitDate: day, Reason: "ANC"})
				return v.ID, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(7), body["patient_id"])
				assert.Equal(t, "ANC", body["reason"])
			},
			want: ID("3"),
		},
		{
			name: "create lab test", method: http.MethodPost, path: "/api/lab-tests",
			reply: `{"data":{"id":4,"patient_id":7,"test_name":"Widal"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				lt, err := s.CreateLabTest(ctx, LabTest{PatientID: "7", TestName: "Widal", TestDate: day})
				return lt.ID, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Widal", body["test_name"])
			},
			want: ID("4"),
		},
		{
			name: "delete lab test", method: http.MethodDelete, path: "/api/lab-tests/4",
			reply: `{"success":true,"message":"Deleted"}`,
			call:  func(ctx context.Context, s *Service) (any, error) { return nil, s.DeleteLabTest(ctx, "4") },
		},
		{
			name: "create lab result", method: http.MethodPost, path: "/api/lab-results",
			reply: `{"data":{"id":9,"lab_test_id":4,"result":"negative"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				r, err := s.CreateLabResult(ctx, LabResult{LabTestID: "4", Result: "negative", ResultDate: day})
				return r.Result, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(4), body["lab_test_id"])
			},
			want: "negative",
		},
		{
			name: "create appointment", method: http.MethodPost, path: "/api/appointments",
			reply: `{"data":{"id":5,"patient_id":7,"status":"scheduled"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				a, err := s.CreateAppointment(ctx, Appointment{PatientID: "7", AppointmentDate: day, Status: AppointmentScheduled})
				return a.Status, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "scheduled", body["status"])
			},
			want: AppointmentScheduled,
		},
		{
			name: "delete appointment", method: http.MethodDelete, path: "/api/appointments/5",
			call: func(ctx context.Context, s *Service) (any, error) { return nil, s.DeleteAppointment(ctx, "5") },
		},
		{
			name: "record vaccination", method: http.MethodPost, path: "/api/vaccinations",
			reply: `{"data":{"id":6,"patient_id":7,"vaccine_name":"BCG","dose_number":1}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				v, err := s.RecordVaccination(ctx, Vaccination{PatientID: "7", VaccineName: "BCG", DoseNumber: 1, VaccinationDate: day})
				return v.VaccineName, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, float64(1), body["dose_number"])
			},
			want: "BCG",
		},
		{
			name: "list patient vaccinations", method: http.MethodGet, path: "/api/vaccinations", query: "patient_id=7",
			reply: `[{"id":6,"patient_id":7,"vaccine_name":"BCG"}]`,
			call: func(ctx context.Context, s *Service) (any, error) {
				v, err := s.ListPatientVaccinations(ctx, "7")
				return len(v), err
			},
			want: 1,
		},
		{
			name: "create medication", method: http.MethodPost, path: "/api/medications",
			reply: `{"data":{"id":8,"name":"Amoxicillin","quantity":40}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				m, err := s.CreateMedication(ctx, Medication{Name: "Amoxicillin", Quantity: 40})
				return m.Quantity, err
			},
			want: 40,
		},
		{
			name: "delete medication", method: http.MethodDelete, path: "/api/medications/8",
			call: func(ctx context.Context, s *Service) (any, error) { return nil, s.DeleteMedication(ctx, "8") },
		},
		{
			name: "create user", method: http.MethodPost, path: "/api/users",
			reply: `{"data":{"id":12,"name":"Otieno","roles":[{"id":2,"name":"nurse"}]}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				u, err := s.CreateUser(ctx, UserInput{Name: "Otieno", Email: "o@clinic.test", Password: "pw", Roles: []string{"nurse"}})
				return u.HasRole("nurse"), err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "o@clinic.test", body["email"])
				assert.Equal(t, []any{"nurse"}, body["roles"])
				assert.NotContains(t, body, "id")
			},
			want: true,
		},
		{
			name: "update user", method: http.MethodPut, path: "/api/users/12",
			reply: `{"data":{"id":12,"name":"Otieno O"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				u, err := s.UpdateUser(ctx, UserInput{ID: "12", Name: "Otieno O", Email: "o@clinic.test"})
				return u.Name, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.NotContains(t, body, "password")
			},
			want: "Otieno O",
		},
		{
			name: "delete user", method: http.MethodDelete, path: "/api/users/12",
			call: func(ctx context.Context, s *Service) (any, error) { return nil, s.DeleteUser(ctx, "12") },
		},
		{
			name: "create role", method: http.MethodPost, path: "/api/roles",
			reply: `{"data":{"id":3,"name":"lab tech"}}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				r, err := s.CreateRole(ctx, "lab tech")
				return r.Name, err
			},
			body: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "lab tech", body["name"])
			},
			want: "lab tech",
		},
		{
			name: "list permissions", method: http.MethodGet, path: "/api/permissions",
			reply: `{"success":true,"data":[{"id":1,"name":"view users"},{"id":2,"name":"view reports"}]}`,
			call: func(ctx context.Context, s *Service) (any, error) {
				p, err := s.ListPermissions(ctx)
				if len(p) == 0 {
					return nil, err
				}
				return p[1].Name, err
			},
			want: "view reports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, loggedIn(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, tt.query, r.URL.RawQuery)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				if tt.body != nil {
					var body map[string]any
					require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
					tt.body(t, body)
				}
				if tt.reply == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, http.StatusOK, tt.reply)
			}))

			got, err := tt.call(context.Background(), svc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeleteRefusedBySuccessFalse(t *testing.T) {
	svc := newTestService(t, loggedIn(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"Patient has visits and cannot be deleted"}`)
	}))

	err := svc.DeletePatient(context.Background(), "4")
	require.Error(t, err)
	assert.Equal(t, gateway.KindRequest, gateway.Kind(err))
	assert.EqualError(t, err, "Patient has visits and cannot be deleted")
}

func TestLogoutRefusedBySuccessFalseStillClears(t *testing.T) {
	store := loggedIn(t)
	svc := newTestService(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"Token could not be revoked"}`)
	}))

	err := svc.Logout(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "Token could not be revoked")
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestWriteWithEmptyBodyIsAccepted(t *testing.T) {
	svc := newTestService(t, loggedIn(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	p, err := svc.CreatePatient(context.Background(), Patient{FirstName: "Grace", Type: PatientChild})
	require.NoError(t, err)
	assert.Equal(t, ID(""), p.ID)

	_, err = svc.UpdateAppointmentStatus(context.Background(), "5", AppointmentCompleted)
	require.NoError(t, err)
}

func TestIDMarshalKeepsNonCanonicalStrings(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"42", `42`},
		{"-3", `-3`},
		{"007", `"007"`},
		{"+5", `"+5"`},
		{"abc-9", `"abc-9"`},
		{"99999999999999999999", `"99999999999999999999"`},
		{"", `null`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(b), "id=%q", tt.id)
	}
}

func TestUpdateMedicationWithZeroPaddedID(t *testing.T) {
	svc := newTestService(t, loggedIn(t), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medications/007", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "007", body["id"])
		writeJSON(w, http.StatusOK, `{"data":{"id":"007","name":"ORS"}}`)
	}))

	m, err := svc.UpdateMedication(context.Background(), Medication{ID: "007", Name: "ORS"})
	require.NoError(t, err)
	assert.Equal(t, ID("007"), m.ID)
}
