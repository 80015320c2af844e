package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yanqian/fitbit-export/internal/domain/fitness"
	"github.com/yanqian/fitbit-export/internal/infra/config"
)

// SinkMode selects where records go.
type SinkMode int

const (
	SinkDatabase SinkMode = iota
	SinkCSV
	SinkDryRun
)

func (m SinkMode) String() string {
	switch m {
	case SinkCSV:
		return "csv"
	case SinkDryRun:
		return "dry-run"
	default:
		return "database"
	}
}

// Options are the parsed command-line arguments.
type Options struct {
	Verbose    bool
	Quiet      bool
	Atomic     bool
	DryRun     bool
	CSV        bool
	EntryDates bool
	SecretFile string
	ConfigPath string
	Dates      []string
}

// Sink reports the sink the flags select.
func (o Options) Sink() SinkMode {
	switch {
	case o.CSV:
		return SinkCSV
	case o.DryRun:
		return SinkDryRun
	default:
		return SinkDatabase
	}
}

// DateMode reports how records should be dated.
func (o Options) DateMode() fitness.DateMode {
	if o.EntryDates {
		return fitness.DateModeEntry
	}
	return fitness.DateModeLegacy
}

// RunFunc executes one export with the parsed options.
type RunFunc func(ctx context.Context, opts Options) error

// NewRootCommand builds the fitbit-export command.
func NewRootCommand(run RunFunc) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:   "fitbit-export [flags] DATE...",
		Short: "Obtains an OAuth2 token, downloads fitbit data, and does something with it.",
		Long: "Obtains an OAuth2 token, downloads fitbit data for each DATE, and writes it to\n" +
			"PostgreSQL, to date-stamped CSV files, or as SQL statements on stdout.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Dates = args
			if opts.Quiet {
				opts.Verbose = false
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", true, "be more verbose")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "be quiet")
	flags.BoolVarP(&opts.Atomic, "atomic-transactions", "a", false, "use atomic transactions (safe and slow)")
	flags.BoolVarP(&opts.DryRun, "dry-run", "n", false, "don't insert into database, just show statements")
	flags.BoolVarP(&opts.CSV, "csv-output", "c", false, "dump data to date-stamped CSV files")
	flags.StringVarP(&opts.SecretFile, "secret-file", "k", config.DefaultSecretsFile, "key = value file with API and database credentials")
	flags.BoolVar(&opts.EntryDates, "entry-dates", false, "date every record by its own entry instead of the legacy carried date")
	flags.StringVar(&opts.ConfigPath, "config", "", "YAML settings file (defaults to CONFIG_PATH or configs/config.yaml)")

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.MarkFlagsMutuallyExclusive("csv-output", "dry-run")
	return cmd
}
