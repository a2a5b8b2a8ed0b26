// Command premiki serves the transfer API and runs maintenance tasks against
// its database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/erazemk/premiki/internal/auth"
	"github.com/erazemk/premiki/internal/config"
	"github.com/erazemk/premiki/internal/db"
	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/store"
)

const usage = `Usage: premiki [command] [flags]

Commands:
  serve     run the HTTP API (default)
  import    create items from a file with one name per line
  report    print a report of completed transfers

Shared flags:
  -d, -db <path>          SQLite database path (default: premiki.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -admin <email>      admin account created on first run
  -l, -log <path>         log file path (default: stdout/stderr only)
  -amqp <url>             publish events to this AMQP broker
  -exchange <name>        AMQP topic exchange (default: premiki.events)
  -cors <origins>         comma separated origins allowed by CORS
  -report-cache <n>       sessions whose last report is kept (default: 256)

import flags:
  -file <path>            item list, "-" for stdin (default: -)

report flags:
  -from <time>            start of the range, inclusive
  -to <time>              end of the range, inclusive
  -csv                    print CSV instead of a table

Settings can also come from PREMIKI_* environment variables or a .env file.
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = cmdServe(ctx, args, stdout)
	case "import":
		err = cmdImport(ctx, args, stdout)
	case "report":
		err = cmdReport(ctx, args, stdout)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// newFlagSet returns a flag set that prints the shared usage text.
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { fmt.Fprint(out, usage) }
	return fs
}

// setup loads the configuration, starts logging and opens the database with
// its schema in place. The returned cleanup closes both.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *sql.DB, func(), error) {
	cfg, err := config.Load(fs, args)
	if err != nil {
		return nil, nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		closeLog()
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		closeLog()
		return nil, nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}

	cleanup := func() {
		database.Close()
		closeLog()
	}
	return cfg, database, cleanup, nil
}

// ensureAdmin creates an active admin account when none exists and returns
// its generated password. The password is empty when nothing was created.
func ensureAdmin(ctx context.Context, database *sql.DB, email string) (string, error) {
	exists, err := store.HasAdmin(ctx, database)
	if err != nil {
		return "", err
	}
	if exists {
		return "", nil
	}

	email, err = model.NormalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("admin account: %w", err)
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, email, hash, true, true); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("admin account created", "user", email)
	return password, nil
}

// printAdminPassword prints the first-run admin credentials.
func printAdminPassword(w io.Writer, email, password string) {
	fmt.Fprintln(w, "Admin account created:")
	fmt.Fprintf(w, "  Email:    %s\n", email)
	fmt.Fprintf(w, "  Password: %s\n", password)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Save this password, it cannot be recovered.")
	fmt.Fprintln(w, "The admin can change it after logging in.")
	fmt.Fprintln(w)
}
