package grouping

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	First, Last string
}

type record struct {
	ID        string
	PatientID string
	Patient   *person
	At        time.Time
	Created   time.Time
}

var recordSource = Source[record, person]{
	Date: func(r record) time.Time { return r.At },
	Patient: func(r record) (string, person, bool) {
		if r.PatientID == "" {
			return "", person{}, false
		}
		if r.Patient == nil {
			return r.PatientID, person{}, true
		}
		return r.PatientID, *r.Patient, true
	},
	Name:      func(p person) string { return p.First + " " + p.Last },
	CreatedAt: func(r record) time.Time { return r.Created },
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 10, d, hour, 0, 0, 0, time.UTC)
}

func sampleRecords() []record {
	zara := &person{"zara", "Mwangi"}
	amos := &person{"Amos", "Otieno"}
	bea := &person{"Bea", "Kamau"}
	return []record{
		{ID: "r1", PatientID: "1", Patient: zara, At: day(17, 9), Created: day(17, 9)},
		{ID: "r2", PatientID: "2", Patient: amos, At: day(19, 8), Created: day(19, 8)},
		{ID: "r3", PatientID: "1", Patient: zara, At: day(19, 10), Created: day(19, 10)},
		{ID: "r4", PatientID: "3", Patient: bea, At: day(19, 11), Created: day(19, 11)},
		{ID: "r5", PatientID: "2", Patient: amos, At: day(19, 12), Created: day(19, 12)},
		{ID: "bad-date", PatientID: "2", Patient: amos},
		{ID: "bad-patient", At: day(18, 9), Created: day(18, 9)},
	}
}

func dateKeys[R, P any](tree Tree[R, P]) []string {
	var out []string
	for _, d := range tree.Dates {
		out = append(out, d.Date)
	}
	return out
}

func TestBuildOrdersDatesPatientsAndRecords(t *testing.T) {
	tree := Build(sampleRecords(), recordSource)

	require.Equal(t, []string{"2026-10-19", "2026-10-17"}, dateKeys(tree))
	assert.Equal(t, 5, tree.RecordCount())

	latest := tree.Dates[0]
	var names []string
	for _, p := range latest.Patients {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Amos Otieno", "Bea Kamau", "zara Mwangi"}, names)

	amos := latest.Patients[0]
	assert.Equal(t, "2026-10-19-2", amos.Key)
	require.Len(t, amos.Records, 2)
	assert.Equal(t, "r5", amos.Records[0].ID)
	assert.Equal(t, "r2", amos.Records[1].ID)
}

func TestBuildKeepsFirstSeenPatient(t *testing.T) {
	records := []record{
		{ID: "a", PatientID: "9", Patient: &person{"Old", "Name"}, At: day(1, 1), Created: day(1, 1)},
		{ID: "b", PatientID: "9", Patient: &person{"New", "Name"}, At: day(1, 2), Created: day(1, 2)},
	}
	tree := Build(records, recordSource)
	require.Len(t, tree.Dates[0].Patients, 1)
	assert.Equal(t, "Old", tree.Dates[0].Patients[0].Patient.First)
}

func TestBuildStableOnTies(t *testing.T) {
	same := day(5, 5)
	records := []record{
		{ID: "first", PatientID: "1", Patient: &person{"Ann", "K"}, At: same, Created: same},
		{ID: "p2", PatientID: "2", Patient: &person{"ann", "k"}, At: same, Created: same},
		{ID: "second", PatientID: "1", Patient: &person{"Ann", "K"}, At: same, Created: same},
	}
	tree := Build(records, recordSource)
	pats := tree.Dates[0].Patients
	require.Len(t, pats, 2)
	assert.Equal(t, "1", pats[0].PatientID)
	assert.Equal(t, "2", pats[1].PatientID)
	assert.Equal(t, "first", pats[0].Records[0].ID)
	assert.Equal(t, "second", pats[0].Records[1].ID)
}

func TestBuildEmpty(t *testing.T) {
	state := NewExpansionState()
	tree := Rebuild[record, person](nil, recordSource, state)
	assert.True(t, tree.Empty())
	assert.True(t, state.Empty())
}

func TestBuildOrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	firsts := []string{"amy", "Ben", "carl", "Dina", "eve"}
	for iter := 0; iter < 50; iter++ {
		var records []record
		for i := 0; i < 40; i++ {
			pid := rng.Intn(len(firsts))
			at := time.Date(2026, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), rng.Intn(24), 0, 0, 0, time.UTC)
			records = append(records, record{
				ID:        fmt.Sprint(i),
				PatientID: fmt.Sprint(pid),
				Patient:   &person{firsts[pid], "X"},
				At:        at,
				Created:   at.Add(time.Duration(rng.Intn(100)) * time.Minute),
			})
		}
		tree := Build(records, recordSource)
		for i := 1; i < len(tree.Dates); i++ {
			assert.Greater(t, tree.Dates[i-1].Date, tree.Dates[i].Date)
		}
		for _, d := range tree.Dates {
			for i := 1; i < len(d.Patients); i++ {
				assert.LessOrEqual(t, strings.ToLower(d.Patients[i-1].Name), strings.ToLower(d.Patients[i].Name))
			}
			for _, p := range d.Patients {
				for i := 1; i < len(p.Records); i++ {
					assert.False(t, p.Records[i].Created.After(p.Records[i-1].Created))
				}
			}
		}
		assert.Equal(t, len(records), tree.RecordCount())
	}
}

func TestRebuildAutoExpandsOnlyWhenStateEmpty(t *testing.T) {
	state := NewExpansionState()
	tree := Rebuild(sampleRecords(), recordSource, state)

	assert.Equal(t, []string{"2026-10-19"}, state.Dates())
	assert.Equal(t, []string{tree.Dates[0].Patients[0].Key}, state.Patients())

	state.CollapsePatient("2026-10-19-2")
	state.ExpandDate("2026-10-17")
	state.ExpandPatient("2026-10-17-1")

	Rebuild(sampleRecords(), recordSource, state)
	assert.Equal(t, []string{"2026-10-19", "2026-10-17"}, state.Dates())
	assert.Equal(t, []string{"2026-10-17-1"}, state.Patients())
}

func TestCollapseDateCascades(t *testing.T) {
	state := NewExpansionState()
	state.ExpandDate("2026-10-19")
	state.ExpandPatient("2026-10-19-1")
	state.ExpandPatient("2026-10-19-22")
	state.ExpandDate("2026-10-18")
	state.ExpandPatient("2026-10-18-1")

	state.CollapseDate("2026-10-19")
	assert.False(t, state.DateExpanded("2026-10-19"))
	assert.False(t, state.PatientExpanded("2026-10-19-1"))
	assert.False(t, state.PatientExpanded("2026-10-19-22"))
	assert.True(t, state.PatientExpanded("2026-10-18-1"))
}

func TestToggle(t *testing.T) {
	var state ExpansionState
	assert.True(t, state.Toggle("2026-10-19"))
	assert.True(t, state.Toggle("2026-10-19-4"))
	assert.False(t, state.Toggle("2026-10-19"))
	assert.False(t, state.PatientExpanded("2026-10-19-4"))
	assert.True(t, state.Empty())
}

func TestIsDateKey(t *testing.T) {
	assert.True(t, IsDateKey("2026-10-19"))
	assert.False(t, IsDateKey("2026-10-19-3"))
	assert.False(t, IsDateKey("2026-13-19"))
}

func TestResetRestoresAutoExpansion(t *testing.T) {
	state := NewExpansionState()
	Rebuild(sampleRecords(), recordSource, state)
	state.ExpandDate("2026-10-17")
	state.Reset()
	assert.True(t, state.Empty())
	Rebuild(sampleRecords(), recordSource, state)
	assert.Equal(t, []string{"2026-10-19"}, state.Dates())
}
