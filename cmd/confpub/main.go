package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/confpub"
	"github.com/fwojciec/confpub/githubactions"
	confhtml "github.com/fwojciec/confpub/html"
	"github.com/fwojciec/confpub/htmltomarkdown"
	confhttp "github.com/fwojciec/confpub/http"
	"github.com/fwojciec/confpub/publish"
	confslog "github.com/fwojciec/confpub/slog"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// The failure has already been reported.
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// EnvFile is loaded into the environment before parsing, without
	// overriding variables that are already set. Empty disables loading.
	EnvFile string

	// Annotate reports failures as GitHub Actions workflow commands.
	Annotate bool
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		EnvFile:  defaultEnvFile(),
		Annotate: githubactions.Running(),
	}
}

// Run executes the CLI with the given arguments. Every failure is sent to
// the reporter before it is returned.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	reporter := m.newReporter(stdout, stderr)

	if err := m.loadEnvFile(); err != nil {
		reportFailure(reporter, err)
		return err
	}

	deps := &Dependencies{
		Ctx:      ctx,
		Stdout:   stdout,
		Stderr:   stderr,
		Reporter: reporter,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("confpub"),
		kong.Description("Publish HTML content to a Confluence page and prune its version history."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		err := fmt.Errorf("no command specified. Run 'confpub --help' to see available commands")
		reportFailure(reporter, err)
		return err
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		reportFailure(reporter, err)
		return err
	}

	logger := newLogger(stderr, cli.Debug)
	deps.Logger = logger

	switch kongCtx.Command() {
	case "publish":
		deps.Publisher, err = newPublisher(&cli.Publish, logger)
	case "validate":
		deps.Publisher, err = newValidatingPublisher(cli.Validate.ValidatorErrors, logger)
	}
	if err != nil {
		reportFailure(reporter, err)
		return err
	}

	if err := kongCtx.Run(deps); err != nil {
		reportFailure(reporter, err)
		return err
	}
	return nil
}

func (m *Main) newReporter(stdout, stderr io.Writer) *githubactions.Reporter {
	// Workflow commands are only recognized on stdout.
	if m.Annotate {
		return githubactions.NewReporter(stdout, true)
	}
	return githubactions.NewReporter(stderr, false)
}

func (m *Main) loadEnvFile() error {
	if m.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(m.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %q: %w", m.EnvFile, err)
	}
	return nil
}

// newPublisher wires the publish pipeline from command flags.
func newPublisher(c *PublishCmd, logger *slog.Logger) (*publish.Publisher, error) {
	if err := c.checkConnection(); err != nil {
		return nil, err
	}

	p, err := newValidatingPublisher(c.ValidatorErrors, logger)
	if err != nil {
		return nil, err
	}
	if c.SkipValidation {
		p.Validator = nil
	}

	if c.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled")
	}
	client := confhttp.NewClient(c.BaseURL, c.Username, c.APIKey,
		confhttp.WithTimeout(c.Timeout),
		confhttp.WithInsecureSkipVerify(c.InsecureSkipVerify),
	)
	p.Pages = confslog.NewLoggingPageService(client, logger)
	p.Converter = htmltomarkdown.NewConverter()
	p.SkipUnchanged = c.SkipUnchanged
	if c.DeleteInterval > 0 {
		p.Pacer = rate.NewLimiter(rate.Every(c.DeleteInterval), 1)
	}
	return p, nil
}

// newValidatingPublisher returns a publisher with only the HTML gate wired.
func newValidatingPublisher(policy string, logger *slog.Logger) (*publish.Publisher, error) {
	validatorErrors, err := publish.ParseValidatorErrorPolicy(policy)
	if err != nil {
		return nil, err
	}
	return &publish.Publisher{
		Validator:       confslog.NewLoggingValidator(confhtml.NewValidator(), logger),
		ValidatorErrors: validatorErrors,
		Logger:          logger,
	}, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("run", uuid.NewString())
}

// reportFailure sends err to the reporter. Invalid content produces a
// second report listing every diagnostic.
func reportFailure(r confpub.Reporter, err error) {
	r.Fail(confpub.ErrorMessage(err))

	var invalid *confpub.InvalidHTMLError
	if errors.As(err, &invalid) {
		r.Fail(invalid.Details())
	}
}

func defaultEnvFile() string {
	if path := os.Getenv("CONFPUB_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}
