package main

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/client"
	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/lookup"
	"github.com/spec-kit/freeler-client/internal/preferences"
	"github.com/spec-kit/freeler-client/internal/routes"
	"github.com/spec-kit/freeler-client/internal/session"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

const usage = `usage: freeler <command> [flags]

commands:
  login     -type freeler|crm -email E -password P
  register  -name N -email E -password P [-national-id ID] [-phone PH]
  logout
  whoami
  open      <path>
  lookup    <national-id>
  theme     [system|light|dark]
  draft     save [flags] | show | clear
`

type command func(ctx context.Context, args []string) error

// errUsage marks argument errors; the usage text has already been printed.
var errUsage = errors.New("usage")

func (a *app) commands() map[string]command {
	return map[string]command{
		"login":    a.login,
		"register": a.register,
		"logout":   a.logout,
		"whoami":   a.whoami,
		"open":     a.open,
		"lookup":   a.lookupID,
		"theme":    a.theme,
		"draft":    a.draft,
	}
}

// run dispatches args[0]. The session store is hydrated before any command.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.errorf("%s", usage)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := a.commands()[args[0]]
	if !ok {
		a.errorf("unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	a.sessions.Hydrate(ctx)

	if err := cmd(ctx, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		a.errorf("freeler %s: %v\n", args[0], err)
		return exitFailure
	}
	return exitOK
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	kind := fs.String("type", "freeler", "session type: freeler (referral agent) or crm (company staff)")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	sessionType, ok := domain.ParseSessionType(*kind)
	if !ok {
		a.errorf("unknown session type %q\n", *kind)
		return errUsage
	}
	if *email == "" || *password == "" {
		a.errorf("email and password are required\n")
		return errUsage
	}

	sess, err := a.sessions.Login(ctx, domain.Credentials{Email: *email, Password: *password}, sessionType)
	if err != nil {
		return describeAuthError(err)
	}
	a.printSession(sess)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	var reg domain.Registration
	fs.StringVar(&reg.Name, "name", "", "full name")
	fs.StringVar(&reg.Email, "email", "", "account email")
	fs.StringVar(&reg.Password, "password", "", "account password")
	fs.StringVar(&reg.NationalID, "national-id", "", "national ID number")
	fs.StringVar(&reg.Phone, "phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if reg.Email == "" || reg.Password == "" {
		a.errorf("email and password are required\n")
		return errUsage
	}

	if reg.Name == "" && reg.NationalID != "" {
		if p, ok := a.resolvePerson(reg.NationalID); ok {
			reg.Name = p.FullName()
			a.printf("name:     %s (from national ID)\n", reg.Name)
		}
	}

	sess, err := a.sessions.Register(ctx, reg)
	if err != nil {
		return describeAuthError(err)
	}
	a.printSession(sess)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	err := a.sessions.Logout(ctx)
	if errors.Is(err, session.ErrRemoteLogout) {
		a.errorf("warning: server did not confirm logout: %v\n", err)
	} else if err != nil {
		return err
	}
	a.printf("signed out\n")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	sess := a.sessions.CurrentSession()
	if sess == nil {
		a.printf("state:    %s\n", a.sessions.State())
		a.printf("login:    %s\n", routes.HomeFor(nil))
		return nil
	}
	a.printSession(sess)
	if claims := auth.DecodeClaims(sess.AccessToken()); claims != nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		note := ""
		switch {
		case !exp.After(time.Now()):
			note = " (expired)"
		case claims.ExpiresWithin(time.Now(), 5*time.Minute):
			note = " (expires soon)"
		}
		a.printf("expires:  %s%s\n", exp.Local().Format(time.RFC3339), note)
	}
	a.printf("reach:    %s\n", strings.Join(routes.Reachable(sess), " "))
	return nil
}

func (a *app) open(_ context.Context, args []string) error {
	if len(args) != 1 {
		a.errorf("usage: freeler open <path>\n")
		return errUsage
	}
	decision := routes.Authorize(a.sessions.CurrentSession(), args[0])
	a.printf("%s %s\n", decision.Outcome, decision.Path)
	return nil
}

func (a *app) lookupID(_ context.Context, args []string) error {
	if len(args) != 1 {
		a.errorf("usage: freeler lookup <national-id>\n")
		return errUsage
	}
	p, ok := a.resolvePerson(args[0])
	if !ok {
		a.printf("no match; enter names manually\n")
		return nil
	}
	a.printf("names:      %s\nlast names: %s\n", p.Names, p.LastNames)
	return nil
}

func (a *app) theme(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		a.printf("%s\n", a.prefs.Theme(ctx))
		return nil
	case 1:
		t, err := preferences.ParseTheme(args[0])
		if err != nil {
			return err
		}
		if err := a.prefs.SetTheme(ctx, t); err != nil {
			return err
		}
		a.printf("%s\n", t)
		return nil
	default:
		a.errorf("usage: freeler theme [system|light|dark]\n")
		return errUsage
	}
}

func (a *app) draft(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.errorf("usage: freeler draft save|show|clear\n")
		return errUsage
	}
	switch args[0] {
	case "show":
		d, ok := a.prefs.Draft(ctx)
		if !ok {
			a.printf("no draft\n")
			return nil
		}
		a.printDraft(d)
		return nil
	case "clear":
		if err := a.prefs.ClearDraft(ctx); err != nil {
			return err
		}
		a.printf("draft cleared\n")
		return nil
	case "save":
		return a.saveDraft(ctx, args[1:])
	default:
		a.errorf("unknown draft action %q\n", args[0])
		return errUsage
	}
}

func (a *app) saveDraft(ctx context.Context, args []string) error {
	d, _ := a.prefs.Draft(ctx)

	fs := a.flagSet("draft save")
	fs.StringVar(&d.Name, "name", d.Name, "lead names")
	fs.StringVar(&d.LastNames, "last-names", d.LastNames, "lead last names")
	fs.StringVar(&d.NationalID, "national-id", d.NationalID, "lead national ID")
	fs.StringVar(&d.Phone, "phone", d.Phone, "lead phone")
	fs.StringVar(&d.Email, "email", d.Email, "lead email")
	fs.StringVar(&d.Notes, "notes", d.Notes, "free-form notes")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if d.NationalID != "" && (d.Name == "" || d.LastNames == "") {
		if p, ok := a.resolvePerson(d.NationalID); ok {
			d = preferences.ApplyPerson(d, p)
		}
	}

	saved, err := a.prefs.SaveDraft(ctx, d)
	if err != nil {
		return err
	}
	if saved.Empty() {
		a.printf("no draft\n")
		return nil
	}
	a.printDraft(saved)
	return nil
}

// resolvePerson runs a single guarded lookup and waits for it to settle.
func (a *app) resolvePerson(nationalID string) (domain.Person, bool) {
	if a.finder == nil {
		return domain.Person{}, false
	}
	field := lookup.NewNationalIDField(a.finder, lookup.FieldOptions{
		TriggerLength: a.cfg.Lookup.TriggerLength,
		Events:        a.events,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})
	defer field.Close()

	field.Input(nationalID)
	field.Wait()

	snap := field.Snapshot()
	if snap.Status != lookup.StatusResolved || snap.Value == nil {
		return domain.Person{}, false
	}
	return *snap.Value, true
}

func (a *app) printSession(sess domain.Session) {
	a.printf("state:    %s\n", a.sessions.State())
	a.printf("type:     %s\n", sess.Type())
	a.printf("user:     %s\n", sess.Subject())
	if staff, ok := sess.(*domain.StaffSession); ok {
		role := string(staff.Role)
		if staff.Role == domain.RoleNone {
			role = "(none)"
		}
		a.printf("role:     %s\n", role)
		a.printf("company:  %s\n", staff.CompanyID)
	}
	a.printf("home:     %s\n", routes.HomeFor(sess))
}

func (a *app) printDraft(d preferences.LeadDraft) {
	fields := []struct{ label, value string }{
		{"names", d.Name},
		{"last names", d.LastNames},
		{"national id", d.NationalID},
		{"phone", d.Phone},
		{"email", d.Email},
		{"notes", d.Notes},
	}
	for _, f := range fields {
		if f.value != "" {
			a.printf("%-12s %s\n", f.label+":", f.value)
		}
	}
	if !d.UpdatedAt.IsZero() {
		a.printf("%-12s %s\n", "saved:", d.UpdatedAt.Local().Format(time.RFC3339))
	}
}

func describeAuthError(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("invalid email or password")
	case errors.Is(err, session.ErrSuperseded):
		return errors.New("another sign-in replaced this one")
	default:
		return err
	}
}
