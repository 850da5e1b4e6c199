// Package grouping turns a flat record list into a date → patient → records
// tree and tracks which branches of that tree are expanded.
package grouping

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout of date keys.
const DateLayout = "2006-01-02"

// Source tells Build how to read a record of type R whose patient is P.
type Source[R, P any] struct {
	// Date is the date-bearing timestamp; only its calendar day is used.
	Date func(R) time.Time
	// Patient resolves the patient reference. ok is false when the id
	// cannot be resolved.
	Patient func(R) (id string, patient P, ok bool)
	// Name is the patient's "first last" display name.
	Name func(P) string
	// CreatedAt orders records inside a patient bucket.
	CreatedAt func(R) time.Time
}

// PatientGroup is one patient's records on one date.
type PatientGroup[R, P any] struct {
	Key       string
	PatientID string
	Patient   P
	Name      string
	Records   []R
}

// DateGroup is every patient seen on one date.
type DateGroup[R, P any] struct {
	Date     string
	Patients []PatientGroup[R, P]
}

// Tree is the grouped view. Dates are most recent first.
type Tree[R, P any] struct {
	Dates []DateGroup[R, P]
}

// Empty reports whether the tree has no dates.
func (t Tree[R, P]) Empty() bool {
	return len(t.Dates) == 0
}

// RecordCount is the number of records that survived grouping.
func (t Tree[R, P]) RecordCount() int {
	n := 0
	for _, d := range t.Dates {
		for _, p := range d.Patients {
			n += len(p.Records)
		}
	}
	return n
}

// PatientKey is the expansion key of a patient bucket.
func PatientKey(date, patientID string) string {
	return date + "-" + patientID
}

// Build groups records. It is a pure function of its input; records whose
// date or patient cannot be resolved are dropped.
func Build[R, P any](records []R, src Source[R, P]) Tree[R, P] {
	var dates []*DateGroup[R, P]
	byDate := map[string]*DateGroup[R, P]{}
	byPatient := map[string]int{}

	for _, rec := range records {
		ts := src.Date(rec)
		if ts.IsZero() {
			continue
		}
		pid, patient, ok := src.Patient(rec)
		pid = strings.TrimSpace(pid)
		if !ok || pid == "" {
			continue
		}
		dateKey := ts.Format(DateLayout)

		dg, seen := byDate[dateKey]
		if !seen {
			dg = &DateGroup[R, P]{Date: dateKey}
			byDate[dateKey] = dg
			dates = append(dates, dg)
		}
		key := PatientKey(dateKey, pid)
		idx, seen := byPatient[key]
		if !seen {
			idx = len(dg.Patients)
			byPatient[key] = idx
			name := ""
			if src.Name != nil {
				name = strings.TrimSpace(src.Name(patient))
			}
			dg.Patients = append(dg.Patients, PatientGroup[R, P]{
				Key:       key,
				PatientID: pid,
				Patient:   patient,
				Name:      name,
			})
		}
		dg.Patients[idx].Records = append(dg.Patients[idx].Records, rec)
	}

	// Sorting happens after bucketing so byPatient indexes stay valid.
	tree := Tree[R, P]{Dates: make([]DateGroup[R, P], 0, len(dates))}
	for _, dg := range dates {
		slices.SortStableFunc(dg.Patients, func(a, b PatientGroup[R, P]) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
		if src.CreatedAt != nil {
			for i := range dg.Patients {
				slices.SortStableFunc(dg.Patients[i].Records, func(a, b R) int {
					return src.CreatedAt(b).Compare(src.CreatedAt(a))
				})
			}
		}
		tree.Dates = append(tree.Dates, *dg)
	}
	slices.SortStableFunc(tree.Dates, func(a, b DateGroup[R, P]) int {
		return strings.Compare(b.Date, a.Date)
	})
	return tree
}

// Rebuild discards any previous tree, groups records afresh and applies the
// first-build auto-expansion to state when state was empty.
func Rebuild[R, P any](records []R, src Source[R, P], state *ExpansionState) Tree[R, P] {
	tree := Build(records, src)
	if state != nil && !tree.Empty() {
		first := tree.Dates[0]
		var patientKey string
		if len(first.Patients) > 0 {
			patientKey = first.Patients[0].Key
		}
		state.seed(first.Date, patientKey)
	}
	return tree
}
