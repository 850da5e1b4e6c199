package views

import (
	"time"

	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	"github.com/wolfman30/clinicdesk/internal/grouping"
)

func patientName(p clinicapi.Patient) string { return p.FullName() }

// LabTestSource groups lab tests by test date. Tests without a test date
// fall back to their creation time.
var LabTestSource = grouping.Source[clinicapi.LabTest, clinicapi.Patient]{
	Date: func(t clinicapi.LabTest) time.Time {
		if !t.TestDate.IsZero() {
			return t.TestDate.Time
		}
		return t.CreatedAt.Time
	},
	Patient: func(t clinicapi.LabTest) (string, clinicapi.Patient, bool) {
		id := t.PatientID
		var p clinicapi.Patient
		if t.Patient != nil {
			p = *t.Patient
			if id == "" {
				id = p.ID
			}
		}
		return string(id), p, id != ""
	},
	Name:      patientName,
	CreatedAt: func(t clinicapi.LabTest) time.Time { return t.CreatedAt.Time },
}

// LabResultSource groups lab results by result date through the nested
// lab test's patient.
var LabResultSource = grouping.Source[clinicapi.LabResult, clinicapi.Patient]{
	Date: func(r clinicapi.LabResult) time.Time {
		if !r.ResultDate.IsZero() {
			return r.ResultDate.Time
		}
		return r.CreatedAt.Time
	},
	Patient: func(r clinicapi.LabResult) (string, clinicapi.Patient, bool) {
		id := r.PatientID()
		var p clinicapi.Patient
		if nested := r.Patient(); nested != nil {
			p = *nested
		}
		return string(id), p, id != ""
	},
	Name:      patientName,
	CreatedAt: func(r clinicapi.LabResult) time.Time { return r.CreatedAt.Time },
}
