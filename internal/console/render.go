// Package console renders clinic data as aligned plain-text tables.
package console

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wolfman30/clinicdesk/internal/clinical"
	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	"github.com/wolfman30/clinicdesk/internal/grouping"
	"github.com/wolfman30/clinicdesk/internal/navigation"
	"github.com/wolfman30/clinicdesk/internal/session"
)

const dash = "-"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return s
}

func date(t clinicapi.Time) string {
	return orDash(t.ISODate())
}

func dateTime(t clinicapi.Time) string {
	if t.IsZero() {
		return dash
	}
	return t.Format("2006-01-02 15:04")
}

// Menu prints the navigation entries.
func Menu(w io.Writer, links []navigation.Link) error {
	if len(links) == 0 {
		_, err := fmt.Fprintln(w, "No menu entries.")
		return err
	}
	tw := newTable(w)
	row(tw, "LABEL", "PATH")
	for _, l := range links {
		row(tw, l.Label, l.Path)
	}
	return tw.Flush()
}

// WhoAmI prints the stored user and, when the token is a JWT, its expiry.
func WhoAmI(w io.Writer, s *session.Session) error {
	tw := newTable(w)
	row(tw, "Name:", orDash(s.User.DisplayName()))
	row(tw, "Email:", orDash(s.User.Email))
	roles := make([]string, 0, len(s.User.Roles))
	for _, r := range s.User.Roles {
		roles = append(roles, r.Name)
	}
	row(tw, "Roles:", orDash(strings.Join(roles, ", ")))
	row(tw, "Permissions:", strconv.Itoa(len(s.User.Permissions)))
	if claims, ok := session.Claims(s.Token); ok && !claims.ExpiresAt.IsZero() {
		row(tw, "Token expires:", claims.ExpiresAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// Patients prints a patient table with the derived stage or pregnancy
// column for each row.
func Patients(w io.Writer, patients []clinicapi.Patient, today time.Time) error {
	tw := newTable(w)
	row(tw, "ID", "NAME", "TYPE", "DOB", "PHONE", "DETAIL")
	for _, p := range patients {
		row(tw, p.ID.String(), orDash(p.FullName()), orDash(string(p.Type)), date(p.DateOfBirth), orDash(p.Phone), detail(clinical.Summarize(p, today)))
	}
	return tw.Flush()
}

func detail(s clinical.Summary) string {
	var parts []string
	if s.Stage != "" {
		parts = append(parts, string(s.Stage))
	}
	if s.GestationalAgeWeeks != nil {
		parts = append(parts, fmt.Sprintf("%d weeks", *s.GestationalAgeWeeks))
	}
	if s.Trimester != "" {
		parts = append(parts, string(s.Trimester))
	}
	return orDash(strings.Join(parts, ", "))
}

// PatientSummary prints one patient with every derived field.
func PatientSummary(w io.Writer, p clinicapi.Patient, s clinical.Summary) error {
	tw := newTable(w)
	row(tw, "ID:", p.ID.String())
	row(tw, "Name:", orDash(p.FullName()))
	row(tw, "Type:", orDash(string(p.Type)))
	row(tw, "Gender:", orDash(p.Gender))
	row(tw, "Phone:", orDash(p.Phone))
	row(tw, "Address:", orDash(p.Address))
	switch p.Type {
	case clinicapi.PatientChild:
		row(tw, "Date of birth:", date(p.DateOfBirth))
		row(tw, "Guardian:", orDash(p.GuardianName))
		if s.AgeMonths != nil {
			row(tw, "Age (months):", strconv.Itoa(*s.AgeMonths))
		}
		row(tw, "Stage:", orDash(string(s.Stage)))
	case clinicapi.PatientPregnant:
		row(tw, "Last period:", date(p.LastMenstrualPeriod))
		row(tw, "Due date:", date(p.ExpectedDeliveryDate))
		if s.GestationalAgeWeeks != nil {
			row(tw, "Gestational age:", fmt.Sprintf("%d weeks", *s.GestationalAgeWeeks))
		}
		if s.WeeksToGo != nil {
			row(tw, "Weeks to go:", strconv.Itoa(*s.WeeksToGo))
		}
		row(tw, "Trimester:", orDash(string(s.Trimester)))
	default:
		row(tw, "Date of birth:", date(p.DateOfBirth))
	}
	return tw.Flush()
}

// Visits prints a visit table.
func Visits(w io.Writer, visits []clinicapi.Visit) error {
	tw := newTable(w)
	row(tw, "ID", "DATE", "PATIENT", "REASON")
	for _, v := range visits {
		row(tw, v.ID.String(), date(v.VisitDate), patientLabel(v.PatientID, v.Patient), orDash(v.Reason))
	}
	return tw.Flush()
}

// Medications prints the stock table.
func Medications(w io.Writer, meds []clinicapi.Medication) error {
	tw := newTable(w)
	row(tw, "ID", "NAME", "DOSAGE", "QTY", "PRICE", "EXPIRES")
	for _, m := range meds {
		row(tw, m.ID.String(), orDash(m.Name), orDash(strings.TrimSpace(m.Dosage+" "+m.Unit)),
			strconv.Itoa(m.Quantity), strconv.FormatFloat(m.Price, 'f', 2, 64), date(m.ExpiryDate))
	}
	return tw.Flush()
}

// Appointments prints the appointment table.
func Appointments(w io.Writer, appts []clinicapi.Appointment) error {
	tw := newTable(w)
	row(tw, "ID", "WHEN", "PATIENT", "STATUS", "REASON")
	for _, a := range appts {
		row(tw, a.ID.String(), dateTime(a.AppointmentDate), patientLabel(a.PatientID, a.Patient), orDash(a.Status), orDash(a.Reason))
	}
	return tw.Flush()
}

// Vaccinations prints administered doses.
func Vaccinations(w io.Writer, doses []clinicapi.Vaccination) error {
	tw := newTable(w)
	row(tw, "ID", "DATE", "PATIENT", "VACCINE", "DOSE", "NEXT DUE")
	for _, v := range doses {
		row(tw, v.ID.String(), date(v.VaccinationDate), patientLabel(v.PatientID, v.Patient),
			orDash(v.VaccineName), strconv.Itoa(v.DoseNumber), date(v.NextDueDate))
	}
	return tw.Flush()
}

// Users prints staff accounts.
func Users(w io.Writer, users []session.User) error {
	tw := newTable(w)
	row(tw, "ID", "NAME", "EMAIL", "ROLES")
	for _, u := range users {
		roles := make([]string, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, r.Name)
		}
		row(tw, strconv.Itoa(u.ID), orDash(u.DisplayName()), orDash(u.Email), orDash(strings.Join(roles, ", ")))
	}
	return tw.Flush()
}

// Roles prints roles and their permissions, sorted by name.
func Roles(w io.Writer, roles []clinicapi.Role) error {
	tw := newTable(w)
	row(tw, "ID", "ROLE", "PERMISSIONS")
	for _, r := range roles {
		perms := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, p.Name)
		}
		sort.Strings(perms)
		row(tw, r.ID.String(), orDash(r.Name), orDash(strings.Join(perms, ", ")))
	}
	return tw.Flush()
}

// Report prints a daily report followed by its totals.
func Report(w io.Writer, r clinicapi.DailyReport) error {
	tw := newTable(w)
	row(tw, "CATEGORY", "TYPE", "AMOUNT", "DESCRIPTION")
	for _, e := range r.Entries {
		row(tw, orDash(e.Category), orDash(e.Kind), money(e.Amount), orDash(e.Description))
	}
	t := r.Totals()
	row(tw, "", "", "", "")
	row(tw, "Total income", "", money(t.Income), "")
	row(tw, "Total expense", "", money(t.Expense), "")
	row(tw, "Net", "", money(t.Net), "")
	return tw.Flush()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormErrors prints per-field messages in field order, then the general
// message.
func FormErrors(w io.Writer, fields map[string]string, general string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := newTable(w)
	for _, name := range names {
		row(tw, name+":", fields[name])
	}
	if general != "" {
		row(tw, "error:", general)
	}
	return tw.Flush()
}

// Tree prints a grouped tree. Collapsed dates and patients show a record
// count instead of their children.
func Tree[R, P any](w io.Writer, tree grouping.Tree[R, P], state *grouping.ExpansionState, line func(R) string) error {
	if tree.Empty() {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}
	if state == nil {
		state = &grouping.ExpansionState{}
	}
	for _, d := range tree.Dates {
		if !state.DateExpanded(d.Date) {
			if _, err := fmt.Fprintf(w, "+ %s (%d patients)\n", d.Date, len(d.Patients)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "- %s\n", d.Date); err != nil {
			return err
		}
		for _, p := range d.Patients {
			name := orDash(p.Name)
			if !state.PatientExpanded(p.Key) {
				if _, err := fmt.Fprintf(w, "    + %s [%s] (%d records)\n", name, p.Key, len(p.Records)); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "    - %s [%s]\n", name, p.Key); err != nil {
				return err
			}
			for _, rec := range p.Records {
				if _, err := fmt.Fprintf(w, "        %s\n", line(rec)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LabTestLine formats one lab test inside a tree.
func LabTestLine(t clinicapi.LabTest) string {
	return fmt.Sprintf("#%s %s (%s)", t.ID, orDash(t.TestName), orDash(t.Status))
}

// LabResultLine formats one lab result inside a tree.
func LabResultLine(r clinicapi.LabResult) string {
	test := dash
	if r.LabTest != nil {
		test = orDash(r.LabTest.TestName)
	}
	line := fmt.Sprintf("#%s %s: %s", r.ID, test, orDash(r.Result))
	if r.Remarks != "" {
		line += " (" + r.Remarks + ")"
	}
	return line
}

func patientLabel(id clinicapi.ID, p *clinicapi.Patient) string {
	if p != nil && p.FullName() != "" {
		return p.FullName()
	}
	if id != "" {
		return "#" + id.String()
	}
	return dash
}
