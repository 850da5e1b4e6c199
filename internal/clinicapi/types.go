// Package clinicapi contains typed calls for each backend endpoint group.
package clinicapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier. The API sends numbers on most endpoints and
// strings on a few; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// Only canonical integers go out bare; "007" or "+5" stay strings.
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Time accepts the date and timestamp layouts the backend emits. The zero
// value means the field was absent or null.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses any of the backend layouts.
func ParseTime(s string) (Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Time{Time: t}, true
		}
	}
	return Time{}, false
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		t.Time = time.Time{}
		return nil
	}
	parsed, ok := ParseTime(*s)
	if !ok {
		// Unparseable dates are treated as missing so one bad row does not
		// fail the whole list.
		t.Time = time.Time{}
		return nil
	}
	*t = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// ISODate formats t as YYYY-MM-DD, or "" when absent.
func (t Time) ISODate() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// DateOnly builds a Time at midnight UTC, for request payloads.
func DateOnly(year int, month time.Month, day int) Time {
	return Time{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// PatientType distinguishes the three registration forms.
type PatientType string

const (
	PatientPregnant      PatientType = "pregnant"
	PatientBreastfeeding PatientType = "breastfeeding"
	PatientChild         PatientType = "child"
)

// Patient is a registered patient of any type.
type Patient struct {
	ID                   ID          `json:"id"`
	FirstName            string      `json:"first_name"`
	LastName             string      `json:"last_name"`
	Type                 PatientType `json:"patient_type"`
	Gender               string      `json:"gender,omitempty"`
	DateOfBirth          Time        `json:"date_of_birth"`
	Phone                string      `json:"phone,omitempty"`
	Address              string      `json:"address,omitempty"`
	GuardianName         string      `json:"guardian_name,omitempty"`
	LastMenstrualPeriod  Time        `json:"last_menstrual_period"`
	ExpectedDeliveryDate Time        `json:"expected_delivery_date"`
	CreatedAt            Time        `json:"created_at"`
}

// FullName is "first last" with blanks dropped.
func (p Patient) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Visit is one clinic visit.
type Visit struct {
	ID        ID       `json:"id"`
	PatientID ID       `json:"patient_id"`
	Patient   *Patient `json:"patient,omitempty"`
	VisitDate Time     `json:"visit_date"`
	Reason    string   `json:"reason,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt Time     `json:"created_at"`
}

// LabTest is a test ordered for a patient.
type LabTest struct {
	ID        ID       `json:"id"`
	PatientID ID       `json:"patient_id"`
	Patient   *Patient `json:"patient,omitempty"`
	TestName  string   `json:"test_name"`
	Status    string   `json:"status,omitempty"`
	TestDate  Time     `json:"test_date"`
	CreatedAt Time     `json:"created_at"`
}

// LabResult is the outcome of a lab test. The patient is only reachable
// through the nested test.
type LabResult struct {
	ID         ID       `json:"id"`
	LabTestID  ID       `json:"lab_test_id"`
	LabTest    *LabTest `json:"lab_test,omitempty"`
	Result     string   `json:"result"`
	Remarks    string   `json:"remarks,omitempty"`
	ResultDate Time     `json:"result_date"`
	CreatedAt  Time     `json:"created_at"`
}

// PatientID resolves the nested lab_test.patient_id reference.
func (r LabResult) PatientID() ID {
	if r.LabTest == nil {
		return ""
	}
	if r.LabTest.PatientID != "" {
		return r.LabTest.PatientID
	}
	if r.LabTest.Patient != nil {
		return r.LabTest.Patient.ID
	}
	return ""
}

// Patient returns the nested patient, if the backend embedded it.
func (r LabResult) Patient() *Patient {
	if r.LabTest == nil {
		return nil
	}
	return r.LabTest.Patient
}

// Medication is a stock item in the dispensary.
type Medication struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Dosage     string  `json:"dosage,omitempty"`
	Unit       string  `json:"unit,omitempty"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	ExpiryDate Time    `json:"expiry_date"`
	CreatedAt  Time    `json:"created_at"`
}

// Appointment statuses used by the backend.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment is a scheduled patient appointment.
type Appointment struct {
	ID              ID       `json:"id"`
	PatientID       ID       `json:"patient_id"`
	Patient         *Patient `json:"patient,omitempty"`
	AppointmentDate Time     `json:"appointment_date"`
	Reason          string   `json:"reason,omitempty"`
	Status          string   `json:"status"`
	CreatedAt       Time     `json:"created_at"`
}

// Vaccination is one administered dose.
type Vaccination struct {
	ID              ID       `json:"id"`
	PatientID       ID       `json:"patient_id"`
	Patient         *Patient `json:"patient,omitempty"`
	VaccineName     string   `json:"vaccine_name"`
	DoseNumber      int      `json:"dose_number"`
	VaccinationDate Time     `json:"vaccination_date"`
	NextDueDate     Time     `json:"next_due_date"`
	CreatedAt       Time     `json:"created_at"`
}

// Permission is a named capability string.
type Permission struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Role groups permissions.
type Role struct {
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}
