// Package clinical derives display values such as developmental stage,
// gestational age and trimester from patient dates.
package clinical

import (
	"time"

	"github.com/wolfman30/clinicdesk/internal/clinicapi"
)

// Stage is a developmental stage label.
type Stage string

const (
	StageNewborn       Stage = "Newborn"
	StageInfant1to3    Stage = "Infant (1-3 months)"
	StageInfant3to6    Stage = "Infant (3-6 months)"
	StageInfant6to9    Stage = "Infant (6-9 months)"
	StageInfant9to12   Stage = "Infant (9-12 months)"
	StageToddler12to18 Stage = "Toddler (12-18 months)"
	StageToddler18to24 Stage = "Toddler (18-24 months)"
	StageToddler24to30 Stage = "Toddler (24-30 months)"
	StageToddler30to36 Stage = "Toddler (30-36 months)"
	StagePreschooler   Stage = "Preschooler"
)

// stageBands are upper bounds (exclusive) in months, in order.
var stageBands = []struct {
	below int
	stage Stage
}{
	{1, StageNewborn},
	{3, StageInfant1to3},
	{6, StageInfant3to6},
	{9, StageInfant6to9},
	{12, StageInfant9to12},
	{18, StageToddler12to18},
	{24, StageToddler18to24},
	{30, StageToddler24to30},
	{36, StageToddler30to36},
}

// Stages lists every stage from youngest to oldest.
func Stages() []Stage {
	out := make([]Stage, 0, len(stageBands)+1)
	for _, b := range stageBands {
		out = append(out, b.stage)
	}
	return append(out, StagePreschooler)
}

// MonthsBetween counts calendar months from birth to today using year and
// month only. The day of month is ignored.
func MonthsBetween(birth, today time.Time) int {
	return (today.Year()-birth.Year())*12 + int(today.Month()) - int(birth.Month())
}

// DevelopmentalStage buckets a child by month difference.
func DevelopmentalStage(birth, today time.Time) Stage {
	months := MonthsBetween(birth, today)
	for _, b := range stageBands {
		if months < b.below {
			return b.stage
		}
	}
	return StagePreschooler
}

// GestationalAgeWeeks is the whole number of weeks between the last
// menstrual period and today, in either direction.
func GestationalAgeWeeks(lmp, today time.Time) int {
	days := daysBetween(lmp, today)
	if days < 0 {
		days = -days
	}
	return days / 7
}

// Trimester labels.
type Trimester string

const (
	TrimesterFirst  Trimester = "First Trimester"
	TrimesterSecond Trimester = "Second Trimester"
	TrimesterThird  Trimester = "Third Trimester"
)

// WeeksToGo is floor((edd - today) / 7 days) counted in calendar days;
// negative once the due date has passed. The time of day on today is
// ignored, so the answer does not change between morning and evening.
func WeeksToGo(edd, today time.Time) int {
	days := daysBetween(today, edd)
	weeks := days / 7
	if days < 0 && days%7 != 0 {
		weeks--
	}
	return weeks
}

// TrimesterFor derives the trimester from weeks remaining until the
// expected delivery date: more than 26 to go is First, more than 12 Second,
// anything else Third.
func TrimesterFor(edd, today time.Time) Trimester {
	switch weeks := WeeksToGo(edd, today); {
	case weeks > 26:
		return TrimesterFirst
	case weeks > 12:
		return TrimesterSecond
	default:
		return TrimesterThird
	}
}

// daysBetween counts calendar days from a to b using UTC dates so DST
// changes do not shave an hour off a day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// Summary holds the derived fields shown on a patient's detail page.
// Fields that do not apply to the patient type are left empty.
type Summary struct {
	PatientID           clinicapi.ID          `json:"patient_id"`
	Name                string                `json:"name"`
	Type                clinicapi.PatientType `json:"patient_type"`
	AgeMonths           *int                  `json:"age_months,omitempty"`
	Stage               Stage                 `json:"developmental_stage,omitempty"`
	GestationalAgeWeeks *int                  `json:"gestational_age_weeks,omitempty"`
	WeeksToGo           *int                  `json:"weeks_to_go,omitempty"`
	Trimester           Trimester             `json:"trimester,omitempty"`
}

// Summarize derives the detail fields for p as of today. Missing dates
// leave the corresponding fields empty.
func Summarize(p clinicapi.Patient, today time.Time) Summary {
	s := Summary{PatientID: p.ID, Name: p.FullName(), Type: p.Type}
	switch p.Type {
	case clinicapi.PatientChild:
		if !p.DateOfBirth.IsZero() {
			months := MonthsBetween(p.DateOfBirth.Time, today)
			s.AgeMonths = &months
			s.Stage = DevelopmentalStage(p.DateOfBirth.Time, today)
		}
	case clinicapi.PatientPregnant:
		if !p.LastMenstrualPeriod.IsZero() {
			weeks := GestationalAgeWeeks(p.LastMenstrualPeriod.Time, today)
			s.GestationalAgeWeeks = &weeks
		}
		if !p.ExpectedDeliveryDate.IsZero() {
			togo := WeeksToGo(p.ExpectedDeliveryDate.Time, today)
			s.WeeksToGo = &togo
			s.Trimester = TrimesterFor(p.ExpectedDeliveryDate.Time, today)
		}
	}
	return s
}
