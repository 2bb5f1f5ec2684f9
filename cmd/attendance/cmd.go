package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/config"
	"github.com/cmlabs-hris/school-backend-go/internal/pipeline"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/validator"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	catalog        config.ClassCatalog
	roster         pipeline.RosterProvider
	store          pipeline.AttendanceStore
	out            io.Writer
	now            func() time.Time
	successDisplay time.Duration

	templateDir string
	templateURL string
	newStorage  func(dir, baseURL string) (storage.FileStorage, error)

	jwtSecret     string
	jwtExpiration string
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  classes                                          - list selectable classes")
	fmt.Fprintln(cli.out, "  roster -class CLASS                              - print the class roster")
	fmt.Fprintln(cli.out, "  template -class CLASS [-date DATE] [-out DIR]    - export an attendance sheet")
	fmt.Fprintln(cli.out, "  import -class CLASS [-date DATE] -file FILE      - import a sheet and submit it")
	fmt.Fprintln(cli.out, "  submit -class CLASS [-date DATE] [-present ROLLS] [-all-present]")
	fmt.Fprintln(cli.out, "                                                   - mark by roll number and submit")
	fmt.Fprintln(cli.out, "  token -user ID [-role teacher|admin]             - mint an access token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()

	switch args[1] {
	case "classes":
		for _, name := range cli.catalog.Names() {
			fmt.Fprintln(cli.out, name)
		}
		return nil

	case "roster":
		cmd := flag.NewFlagSet("roster", flag.ContinueOnError)
		class := cmd.String("class", "", "Class to load")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		s, err := cli.loadSession(ctx, cmd, *class, "")
		if err != nil {
			return err
		}
		return cli.printRoster(s)

	case "template":
		cmd := flag.NewFlagSet("template", flag.ContinueOnError)
		class := cmd.String("class", "", "Class to export")
		date := cmd.String("date", "", "Attendance date, YYYY-MM-DD (default today)")
		out := cmd.String("out", cli.templateDir, "Directory the sheet is written to")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		s, err := cli.loadSession(ctx, cmd, *class, *date)
		if err != nil {
			return err
		}
		return cli.exportTemplate(ctx, s, *out)

	case "import":
		cmd := flag.NewFlagSet("import", flag.ContinueOnError)
		class := cmd.String("class", "", "Class the sheet belongs to")
		date := cmd.String("date", "", "Attendance date, YYYY-MM-DD (default today)")
		file := cmd.String("file", "", "Filled sheet (.xlsx or .xls)")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		s, err := cli.loadSession(ctx, cmd, *class, *date)
		if err != nil {
			return err
		}
		return cli.importSheet(ctx, s, *file)

	case "submit":
		cmd := flag.NewFlagSet("submit", flag.ContinueOnError)
		class := cmd.String("class", "", "Class to submit for")
		date := cmd.String("date", "", "Attendance date, YYYY-MM-DD (default today)")
		present := cmd.String("present", "", "Comma separated roll numbers to mark present")
		allPresent := cmd.Bool("all-present", false, "Mark every student present")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		s, err := cli.loadSession(ctx, cmd, *class, *date)
		if err != nil {
			return err
		}
		return cli.submit(ctx, s, *present, *allPresent)

	case "token":
		cmd := flag.NewFlagSet("token", flag.ContinueOnError)
		user := cmd.String("user", "", "User ID to put in the token")
		role := cmd.String("role", string(jwt.RoleTeacher), "teacher or admin")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *user == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.mintToken(*user, jwt.Role(*role))

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) loadSession(ctx context.Context, cmd *flag.FlagSet, class, date string) (*pipeline.Session, error) {
	if class == "" {
		cmd.Usage()
		return nil, errHelp
	}
	if !cli.catalog.Has(class) {
		return nil, fmt.Errorf("unknown class %q (known: %s)", class, strings.Join(cli.catalog.Names(), ", "))
	}

	s := pipeline.NewSession(cli.roster, cli.store,
		pipeline.WithClock(cli.now),
		pipeline.WithSuccessDisplay(cli.successDisplay),
	)
	if date != "" {
		d, ok := validator.IsValidDate(date)
		if !ok {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
		}
		s.SelectDate(d)
	}

	s.SelectClass(class)
	if err := s.LoadRoster(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (cli *commandLine) printRoster(s *pipeline.Session) error {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLL NO\tNAME\tID")
	for _, st := range s.Roster() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", st.RollNumber, st.Name, st.ID)
	}
	return tw.Flush()
}

func (cli *commandLine) exportTemplate(ctx context.Context, s *pipeline.Session, dir string) error {
	tmpl, err := s.ExportTemplate()
	if err != nil {
		return err
	}

	baseURL := cli.templateURL
	if dir != cli.templateDir {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		baseURL = "file://" + filepath.ToSlash(abs)
	}
	fs, err := cli.newStorage(dir, baseURL)
	if err != nil {
		return err
	}

	url, err := pipeline.SaveTemplate(ctx, fs, tmpl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Template written: %s\n", url)
	return nil
}

func (cli *commandLine) importSheet(ctx context.Context, s *pipeline.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	res, err := s.Import(ctx, f, filepath.Base(path))
	for _, row := range res.Unmatched {
		fmt.Fprintf(cli.out, "warning: row %d: roll number %q is not in class %s, skipped\n", row.Row, row.RollNumber, s.ClassID())
	}
	if err != nil {
		return err
	}
	cli.printSubmitted(res.Submit)
	return nil
}

func (cli *commandLine) submit(ctx context.Context, s *pipeline.Session, present string, allPresent bool) error {
	if allPresent {
		if err := s.MarkAll(true); err != nil {
			return err
		}
	}

	if present != "" {
		byRoll := make(map[string]string)
		for _, st := range s.Roster() {
			byRoll[st.RollNumber] = st.ID
		}
		for _, roll := range strings.Split(present, ",") {
			roll = strings.TrimSpace(roll)
			if roll == "" {
				continue
			}
			id, ok := byRoll[roll]
			if !ok {
				return fmt.Errorf("roll number %q is not in class %s", roll, s.ClassID())
			}
			if marked, _ := s.IsPresent(id); marked {
				continue
			}
			if err := s.Toggle(id); err != nil {
				return err
			}
		}
	}

	res, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	cli.printSubmitted(res)
	return nil
}

func (cli *commandLine) printSubmitted(res pipeline.SubmitResult) {
	fmt.Fprintf(cli.out, "Attendance submitted for %s on %s: %d present, %d absent",
		res.Batch.ClassID,
		validator.FormatDate(res.Batch.Date),
		res.Batch.Present(),
		len(res.Batch.Marks)-res.Batch.Present(),
	)
	if res.Receipt.BatchID != "" {
		fmt.Fprintf(cli.out, " (batch %s)", res.Receipt.BatchID)
	}
	fmt.Fprintln(cli.out)
}

func (cli *commandLine) mintToken(user string, role jwt.Role) error {
	if cli.jwtSecret == "" {
		return errors.New("JWT_SECRET_KEY is not set")
	}
	if role != jwt.RoleTeacher && role != jwt.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}

	svc, err := jwt.NewJWTService(cli.jwtSecret, cli.jwtExpiration)
	if err != nil {
		return err
	}
	token, expiresAt, err := svc.GenerateAccessToken(user, role)
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, token)
	fmt.Fprintf(cli.out, "# expires %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}
