package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/sales-dashboard/internal/app"
	"github.com/dvloznov/sales-dashboard/internal/apperr"
	"github.com/dvloznov/sales-dashboard/internal/config"
	"github.com/dvloznov/sales-dashboard/internal/logger"
	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/service"
)

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()

	// Logs go to stderr so stdout carries only JSON.
	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	err := run(ctx, os.Args[1], os.Args[2:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	default:
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Sales Dashboard CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  list        List one page of transactions")
	fmt.Fprintln(w, "  get         Show a single transaction by id")
	fmt.Fprintln(w, "  options     Show the values available to each filter")
	fmt.Fprintln(w, "  analytics   Show the dashboard summary figures")
	fmt.Fprintln(w, "  help        Show this help message")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

// storeFlags are the connection flags shared by every command.
type storeFlags struct {
	config   *string
	backend  *string
	snapshot *string
	tz       *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		config:   fs.String("config", "", "Path to a YAML config file"),
		backend:  fs.String("backend", "", "Store backend: mongo, bigquery or memory (overrides STORE_BACKEND)"),
		snapshot: fs.String("snapshot", "", "Snapshot path or gs:// URI for the memory backend (overrides SNAPSHOT_URI)"),
		tz:       fs.String("tz", "", "IANA time zone for date filters (overrides TZ_NAME)"),
	}
}

func (f storeFlags) load() (*config.Config, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return nil, err
	}
	if *f.backend != "" {
		cfg.Store.Backend = *f.backend
	}
	if *f.snapshot != "" {
		cfg.Store.Memory.Snapshot = *f.snapshot
	}
	if *f.tz != "" {
		cfg.Timezone = *f.tz
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "list":
		return runList(ctx, args, out)
	case "get":
		return runGet(ctx, args, out)
	case "options":
		return runOptions(ctx, args, out)
	case "analytics":
		return runAnalytics(ctx, args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("%s: %w", command, errUsage)
	}
}

// withService opens the configured store, runs fn and closes the store.
func withService(ctx context.Context, cfg *config.Config, fn func(*service.Transactions) error) error {
	s, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(ctx); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Failed to close record store")
		}
	}()
	return fn(service.NewTransactions(s))
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	search := fs.String("search", "", "Case-insensitive customer name or phone search")
	regions := fs.String("regions", "", "Comma-separated customer regions")
	categories := fs.String("categories", "", "Comma-separated product categories")
	tags := fs.String("tags", "", "Comma-separated tags")
	gender := fs.String("gender", "", "Comma-separated genders")
	payments := fs.String("payment-methods", "", "Comma-separated payment methods")
	ageMin := fs.String("age-min", "", "Minimum age")
	ageMax := fs.String("age-max", "", "Maximum age")
	dateStart := fs.String("date-start", "", "First day, YYYY-MM-DD")
	dateEnd := fs.String("date-end", "", "Last day, YYYY-MM-DD")
	sortKey := fs.String("sort", "date", "Sort order: date, quantity or name")
	page := fs.String("page", "1", "Page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sf.load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Reuse the HTTP parameter parsing so validation matches the API.
	values := url.Values{}
	for key, v := range map[string]string{
		"search":         *search,
		"regions":        *regions,
		"categories":     *categories,
		"tags":           *tags,
		"gender":         *gender,
		"paymentMethods": *payments,
		"ageMin":         *ageMin,
		"ageMax":         *ageMax,
		"dateStart":      *dateStart,
		"dateEnd":        *dateEnd,
		"sort":           *sortKey,
		"page":           *page,
	} {
		if v != "" {
			values.Set(key, v)
		}
	}
	criteria, err := query.ParseCriteria(values, loc)
	if err != nil {
		return err
	}

	return withService(ctx, cfg, func(svc *service.Transactions) error {
		p, err := svc.List(ctx, criteria)
		if err != nil {
			return err
		}
		return writeJSON(out, p)
	})
}

func runGet(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	id := fs.String("id", "", "Transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return apperr.Validation("--id is required")
	}

	cfg, err := sf.load()
	if err != nil {
		return err
	}

	return withService(ctx, cfg, func(svc *service.Transactions) error {
		rec, found, err := svc.Get(ctx, *id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("transaction %s not found", *id)
		}
		return writeJSON(out, rec)
	})
}

func runOptions(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sf.load()
	if err != nil {
		return err
	}

	return withService(ctx, cfg, func(svc *service.Transactions) error {
		opts, err := svc.Options(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, opts)
	})
}

func runAnalytics(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("analytics", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sf.load()
	if err != nil {
		return err
	}

	return withService(ctx, cfg, func(svc *service.Transactions) error {
		a, err := svc.Analytics(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, a)
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
