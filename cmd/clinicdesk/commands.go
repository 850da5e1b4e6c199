package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinicdesk/internal/clinical"
	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	"github.com/wolfman30/clinicdesk/internal/console"
	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/grouping"
	"github.com/wolfman30/clinicdesk/internal/navigation"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/internal/views"
)

func (c *cli) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				line, err := bufio.NewReader(c.stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			creds := clinicapi.Credentials{Email: email, Password: password}
			if err := creds.Validate(); err != nil {
				return err
			}

			form := views.NewFormView(views.NewScope(), c.deps(), c.rt.Service.Login)
			sess, err := form.Submit(cmd.Context(), creds)
			if err != nil {
				state := form.State()
				general := state.Error
				var ae *gateway.AuthorizationError
				if errors.As(err, &ae) {
					general = "Invalid email or password."
				}
				_ = console.FormErrors(c.stderr, state.FieldErrors, general)
				return errors.New("login failed")
			}
			fmt.Fprintf(c.stdout, "Logged in as %s.\n", sess.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (read from stdin when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the token and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.rt.Service.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(c.stderr, "warning:", views.Message(err))
			}
			fmt.Fprintln(c.stdout, "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Require(cmd.Context(), c.rt.Sessions)
			if err != nil {
				return errLoginRequired
			}
			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				sess, err = c.rt.Service.RefreshProfile(cmd.Context())
				if err != nil {
					return c.refreshError(cmd.Context(), err)
				}
			}
			return console.WhoAmI(c.stdout, sess)
		},
	}
	cmd.Flags().Bool("refresh", false, "Reload the profile from the backend first")
	return cmd
}

// refreshError clears a rejected session the same way views do.
func (c *cli) refreshError(ctx context.Context, err error) error {
	view := views.NewListView(views.NewScope(), c.deps(), func(context.Context) ([]struct{}, error) {
		return nil, err
	})
	return c.viewError(view.Load(ctx))
}

func (c *cli) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the navigation entries your roles allow",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Require(cmd.Context(), c.rt.Sessions)
			if err != nil {
				return errLoginRequired
			}
			return console.Menu(c.stdout, navigation.Menu(sess))
		},
	}
}

func (c *cli) patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Patient registry",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			search, _ := cmd.Flags().GetString("search")
			page, _ := cmd.Flags().GetInt("page")
			filter := clinicapi.PatientFilter{
				ListOptions: clinicapi.ListOptions{Search: search, Page: page},
				Type:        clinicapi.PatientType(strings.ToLower(typ)),
			}
			var pageInfo string
			patients, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Patient, error) {
				items, p, err := c.rt.Service.ListPatients(ctx, filter)
				if p.LastPage > 0 {
					pageInfo = fmt.Sprintf("Page %d of %d (%d patients)", p.CurrentPage, p.LastPage, p.Total)
				}
				return items, err
			})
			if err != nil {
				return err
			}
			if err := console.Patients(c.stdout, patients, c.now()); err != nil {
				return err
			}
			if pageInfo != "" {
				fmt.Fprintln(c.stdout, pageInfo)
			}
			return nil
		},
	}
	list.Flags().String("type", "", "pregnant, breastfeeding or child")
	list.Flags().String("search", "", "Name or phone search")
	list.Flags().Int("page", 0, "Page number")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a patient with derived stage or pregnancy details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Patient, error) {
				p, err := c.rt.Service.GetPatient(ctx, clinicapi.ID(args[0]))
				if err != nil {
					return nil, err
				}
				return []clinicapi.Patient{p}, nil
			})
			if err != nil {
				return err
			}
			p := items[0]
			return console.PatientSummary(c.stdout, p, clinical.Summarize(p, c.now()))
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p := clinicapi.Patient{}
			p.FirstName, _ = flags.GetString("first-name")
			p.LastName, _ = flags.GetString("last-name")
			typ, _ := flags.GetString("type")
			p.Type = clinicapi.PatientType(strings.ToLower(strings.TrimSpace(typ)))
			p.Gender, _ = flags.GetString("gender")
			p.Phone, _ = flags.GetString("phone")
			p.Address, _ = flags.GetString("address")
			p.GuardianName, _ = flags.GetString("guardian")
			for flag, field := range map[string]*clinicapi.Time{
				"dob": &p.DateOfBirth,
				"lmp": &p.LastMenstrualPeriod,
				"edd": &p.ExpectedDeliveryDate,
			} {
				raw, _ := flags.GetString(flag)
				if raw == "" {
					continue
				}
				day, err := parseDay(raw, c.now())
				if err != nil {
					return fmt.Errorf("--%s: %w", flag, err)
				}
				*field = clinicapi.DateOnly(day.Year(), day.Month(), day.Day())
			}

			saved, err := submitForm(cmd.Context(), c, c.rt.Service.CreatePatient, p)
			if err != nil {
				return err
			}
			c.printSaved("patient", saved.ID)
			return nil
		},
	}
	create.Flags().String("first-name", "", "First name")
	create.Flags().String("last-name", "", "Last name")
	create.Flags().String("type", "", "pregnant, breastfeeding or child")
	create.Flags().String("gender", "", "Gender")
	create.Flags().String("dob", "", "Date of birth, YYYY-MM-DD")
	create.Flags().String("phone", "", "Phone number")
	create.Flags().String("address", "", "Address")
	create.Flags().String("guardian", "", "Guardian name (children)")
	create.Flags().String("lmp", "", "Last menstrual period, YYYY-MM-DD (pregnant)")
	create.Flags().String("edd", "", "Expected delivery date, YYYY-MM-DD (pregnant)")

	cmd.AddCommand(list, show, create)
	return cmd
}

// submitForm saves in through a protected form view. Field errors and the
// general message go to stderr; the returned error only says what failed.
func submitForm[In, Out any](ctx context.Context, c *cli, submit func(context.Context, In) (Out, error), in In) (Out, error) {
	form := views.NewFormView(views.NewScope(), c.deps(), submit, views.Protected())
	out, err := form.Submit(ctx, in)
	if err == nil {
		return out, nil
	}
	if c.redirected {
		return out, errLoginRequired
	}
	state := form.State()
	_ = console.FormErrors(c.stderr, state.FieldErrors, state.Error)
	return out, errors.New("not saved")
}

func (c *cli) printSaved(what string, id clinicapi.ID) {
	if id == "" {
		fmt.Fprintf(c.stdout, "Saved %s.\n", what)
		return
	}
	fmt.Fprintf(c.stdout, "Saved %s #%s.\n", what, id)
}

func (c *cli) visitsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "visits", Short: "Clinic visits"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			patient, _ := cmd.Flags().GetString("patient")
			visits, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Visit, error) {
				if patient != "" {
					return c.rt.Service.ListPatientVisits(ctx, clinicapi.ID(patient))
				}
				return c.rt.Service.ListVisits(ctx, clinicapi.ListOptions{})
			})
			if err != nil {
				return err
			}
			return console.Visits(c.stdout, visits)
		},
	}
	list.Flags().String("patient", "", "Only visits for this patient id")
	cmd.AddCommand(list)
	return cmd
}

// groupedFlags adds the tree expansion flags shared by the lab commands.
func groupedFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("toggle", nil, "Date or date-patient keys to toggle after the default expansion")
	cmd.Flags().Bool("all", false, "Expand every date and patient")
}

func runGrouped[R any](cmd *cobra.Command, c *cli, fetch func(context.Context) ([]R, error), source grouping.Source[R, clinicapi.Patient], line func(R) string) error {
	state := grouping.NewExpansionState()
	view := views.NewGroupedView(views.NewScope(), c.deps(), fetch, source, state)
	if err := view.Load(cmd.Context()); err != nil {
		return c.viewError(err)
	}
	tree := view.Tree()

	if all, _ := cmd.Flags().GetBool("all"); all {
		for _, d := range tree.Dates {
			state.ExpandDate(d.Date)
			for _, p := range d.Patients {
				state.ExpandPatient(p.Key)
			}
		}
	}
	toggles, _ := cmd.Flags().GetStringSlice("toggle")
	for _, key := range toggles {
		state.Toggle(strings.TrimSpace(key))
	}
	return console.Tree(c.stdout, tree, state, line)
}

func (c *cli) labTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab-tests",
		Short: "Lab tests grouped by date and patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrouped(cmd, c, c.rt.Service.ListLabTests, views.LabTestSource, console.LabTestLine)
		},
	}
	groupedFlags(cmd)

	create := &cobra.Command{
		Use:   "create",
		Short: "Order a lab test for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			patient, _ := cmd.Flags().GetString("patient")
			name, _ := cmd.Flags().GetString("test")
			raw, _ := cmd.Flags().GetString("date")
			day, err := parseDay(raw, c.now())
			if err != nil {
				return err
			}
			in := clinicapi.LabTest{
				PatientID: clinicapi.ID(strings.TrimSpace(patient)),
				TestName:  strings.TrimSpace(name),
				TestDate:  clinicapi.DateOnly(day.Year(), day.Month(), day.Day()),
			}
			saved, err := submitForm(cmd.Context(), c, c.rt.Service.CreateLabTest, in)
			if err != nil {
				return err
			}
			c.printSaved("lab test", saved.ID)
			return nil
		},
	}
	create.Flags().String("patient", "", "Patient id")
	create.Flags().String("test", "", "Test name")
	create.Flags().String("date", "today", "Test date, YYYY-MM-DD or \"today\"")
	cmd.AddCommand(create)
	return cmd
}

func (c *cli) labResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab-results",
		Short: "Lab results grouped by date and patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrouped(cmd, c, c.rt.Service.ListLabResults, views.LabResultSource, console.LabResultLine)
		},
	}
	groupedFlags(cmd)
	return cmd
}

func (c *cli) medicationsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "medications", Short: "Dispensary stock"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List medications",
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			meds, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Medication, error) {
				return c.rt.Service.ListMedications(ctx, clinicapi.ListOptions{Search: search})
			})
			if err != nil {
				return err
			}
			return console.Medications(c.stdout, meds)
		},
	}
	list.Flags().String("search", "", "Name search")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "appointments", Short: "Appointments"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, _ := cmd.Flags().GetString("date")
			status, _ := cmd.Flags().GetString("status")
			filter := clinicapi.AppointmentFilter{Status: status}
			if day != "" {
				parsed, err := parseDay(day, c.now())
				if err != nil {
					return err
				}
				filter.Date = parsed
			}
			appts, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Appointment, error) {
				return c.rt.Service.ListAppointments(ctx, filter)
			})
			if err != nil {
				return err
			}
			return console.Appointments(c.stdout, appts)
		},
	}
	list.Flags().String("date", "", "YYYY-MM-DD or \"today\"")
	list.Flags().String("status", "", "scheduled, completed or cancelled")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) vaccinationsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "vaccinations", Short: "Vaccination records"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List administered doses",
		RunE: func(cmd *cobra.Command, args []string) error {
			patient, _ := cmd.Flags().GetString("patient")
			doses, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.Vaccination, error) {
				if patient != "" {
					return c.rt.Service.ListPatientVaccinations(ctx, clinicapi.ID(patient))
				}
				return c.rt.Service.ListVaccinations(ctx, clinicapi.ListOptions{})
			})
			if err != nil {
				return err
			}
			return console.Vaccinations(c.stdout, doses)
		},
	}
	list.Flags().String("patient", "", "Only doses for this patient id")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Staff accounts"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePermission(cmd.Context(), "view users"); err != nil {
				return err
			}
			users, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]session.User, error) {
				return c.rt.Service.ListUsers(ctx, clinicapi.ListOptions{})
			})
			if err != nil {
				return err
			}
			return console.Users(c.stdout, users)
		},
	})
	return cmd
}

func (c *cli) rolesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "roles", Short: "Roles and permissions"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles with their permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePermission(cmd.Context(), "view roles"); err != nil {
				return err
			}
			roles, err := loadList(cmd.Context(), c, c.rt.Service.ListRoles)
			if err != nil {
				return err
			}
			return console.Roles(c.stdout, roles)
		},
	})
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Financial reports"}
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Daily income and expense report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requirePermission(cmd.Context(), "view reports"); err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("date")
			day, err := parseDay(raw, c.now())
			if err != nil {
				return err
			}
			reports, err := loadList(cmd.Context(), c, func(ctx context.Context) ([]clinicapi.DailyReport, error) {
				r, err := c.rt.Service.DailyReport(ctx, day)
				if err != nil {
					return nil, err
				}
				return []clinicapi.DailyReport{r}, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Daily report for %s\n\n", day.Format(grouping.DateLayout))
			return console.Report(c.stdout, reports[0])
		},
	}
	daily.Flags().String("date", "today", "YYYY-MM-DD or \"today\"")
	cmd.AddCommand(daily)
	return cmd
}

func parseDay(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "today") {
		return now, nil
	}
	day, err := time.ParseInLocation(grouping.DateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return day, nil
}
