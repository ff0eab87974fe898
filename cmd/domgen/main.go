// Command domgen compiles a domain model definition into SQL, Java, Go,
// GraphQL and resource artifacts.
//
//	domgen [-config domgen.yaml] generate [-watch] [flags]
//	domgen [-config domgen.yaml] check [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/syssam/domgen/compiler"
	"github.com/syssam/domgen/compiler/gen"
	"github.com/syssam/domgen/compiler/gen/atlasddl"
	"github.com/syssam/domgen/compiler/load"
	"github.com/syssam/domgen/dialect/sqlcheck"
	"github.com/syssam/domgen/internal/config"
	"github.com/syssam/domgen/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		lookup:  os.LookupEnv,
		environ: os.Environ(),
	}
	os.Exit(a.run(ctx, os.Args[1:]))
}

// app carries the process environment of a run.
type app struct {
	stdout, stderr io.Writer
	lookup         func(string) (string, bool)
	environ        []string
}

const usage = `usage: domgen [-config file] <command> [flags]

commands:
  generate   build the definition and write artifacts (-watch regenerates on change)
  check      run the planned DDL against check.driver/check.dsn and roll it back
  help       show this help

run "domgen <command> -h" for command flags.
`

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("domgen", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { fmt.Fprint(a.stderr, usage) }
	path := fs.String("config", config.DefaultPath, "project file")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	cmd, rest := "help", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return 0
	case "generate", "check":
	default:
		fmt.Fprintf(a.stderr, "domgen: unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	cfg, err := a.config(*path)
	if err != nil {
		fmt.Fprintf(a.stderr, "domgen: %v\n", err)
		return 1
	}
	sub := flag.NewFlagSet(cmd, flag.ContinueOnError)
	sub.SetOutput(a.stderr)
	cfg.RegisterFlags(sub)
	var watch, dryRun bool
	if cmd == "generate" {
		sub.BoolVar(&watch, "watch", false, "regenerate when the definition file changes")
		sub.BoolVar(&dryRun, "dry-run", false, "render without writing")
	}
	if err := sub.Parse(rest); err != nil {
		return exitCode(err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(a.stderr, "domgen: invalid configuration:\n%v\n", err)
		return 1
	}

	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: a.stderr}).With(cmd)
	switch {
	case cmd == "check":
		err = check(ctx, cfg, log)
	case watch:
		err = watchDefinition(ctx, cfg.Schema, 200*time.Millisecond, log, func() error {
			return generate(ctx, cfg, log, dryRun)
		})
	default:
		err = generate(ctx, cfg, log, dryRun)
	}
	if err != nil {
		log.Failure(err, cmd+" failed")
		return 1
	}
	return 0
}

// config loads the project file and applies environment overrides.
func (a *app) config(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(a.lookup); err != nil {
		return nil, err
	}
	cfg.ApplyParamEnv(a.environ)
	return cfg, nil
}

func exitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

// generate builds the definition and writes the configured elements.
func generate(ctx context.Context, cfg *config.Config, log *logger.Logger, dryRun bool) error {
	run := ulid.Make().String()
	start := time.Now()
	set, err := load.LoadSet(cfg.Schema)
	if err != nil {
		return err
	}
	zl := log.Zerolog().With().Str("run", run).Logger()
	opts := append(cfg.GeneratorOptions(), gen.WithLogger(zl))
	if dryRun {
		opts = append(opts, gen.WithDryRun())
	}
	metrics, err := compiler.GenerateWithMetrics(ctx, set, &compiler.Config{Elements: cfg.Elements, Options: opts})
	if err != nil {
		return err
	}
	zl.Info().
		Str("schema", cfg.Schema).
		Strs("elements", cfg.Elements).
		Int("object_types", len(set.ObjectTypes())).
		Int("files", metrics.FilesGenerated).
		Dur("took", time.Since(start)).
		Msg("generated")
	return nil
}

// check plans the DDL of the definition for the check driver and runs it
// inside a rolled back transaction.
func check(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	d, err := sqlcheck.Dialect(cfg.Check.Driver)
	if err != nil {
		return err
	}
	set, err := load.LoadSet(cfg.Schema)
	if err != nil {
		return err
	}
	stmts, err := atlasddl.Plan(ctx, set, d)
	if err != nil {
		return err
	}
	db, err := sqlcheck.Open(ctx, cfg.Check.Driver, cfg.Check.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := sqlcheck.Check(ctx, db, stmts); err != nil {
		return err
	}
	log.Info().
		Str("driver", cfg.Check.Driver).
		Str("dsn", redact(cfg.Check.DSN)).
		Int("statements", len(stmts)).
		Msg("check passed")
	return nil
}

// redact hides the password of URL shaped data sources.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return scheme + "://" + user + ":xxxxx@" + host
	}
	return dsn
}
