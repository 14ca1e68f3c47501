package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sextet-lights/internal/audit"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/config"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/database"
	"github.com/nerrad567/sextet-lights/migrations"
)

var errJournalDisabled = errors.New("event journal disabled: set database.enabled in the config file")

var eventsFilter audit.Filter

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the controller connection journal",
	Long: `Lists recorded controller connection events, newest first. Requires the
database section of the config file to be enabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return listEvents(cmd.Context(), cmd.OutOrStdout(), cfg.Database, eventsFilter)
	},
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsFilter.Controller, "controller", "", "only events of this controller")
	f.StringVar(&eventsFilter.Kind, "kind", "", "only events of this kind (connected, connect_failed, connection_lost)")
	f.IntVarP(&eventsFilter.Limit, "limit", "n", 50, "maximum number of events")
	rootCmd.AddCommand(eventsCmd)
}

func listEvents(ctx context.Context, w io.Writer, cfg config.DatabaseConfig, filter audit.Filter) error {
	if !cfg.Enabled {
		return errJournalDisabled
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	res, err := audit.NewSQLiteRepository(db.DB).List(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCONTROLLER\tEVENT\tRETRY\tERROR")
	for _, e := range res.Entries {
		retry := "-"
		if e.RetryIn > 0 {
			retry = e.RetryIn.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Controller, e.Kind, retry, e.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d events\n", len(res.Entries), res.Total)
	return nil
}
