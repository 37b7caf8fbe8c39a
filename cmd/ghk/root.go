package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gharkharcha/internal/config"
	"gharkharcha/internal/database"
	"gharkharcha/internal/logger"
	"gharkharcha/internal/models"
	"gharkharcha/internal/report"
	"gharkharcha/internal/session"
	"gharkharcha/internal/store/gormstore"
)

const dateLayout = "2006-01-02"

// cli carries the state shared by every subcommand.
type cli struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	cmd := &cobra.Command{
		Use:   "ghk",
		Short: "Household expense tool",
		Long: `ghk reads the household expense database directly.
It can issue development sign-in tokens, print expense summaries and export
expenses as CSV.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Init(cfg.Env, cfg.LogLevel)
			app.cfg = cfg
			app.log = logger.Named("ghk")
			return nil
		},
	}

	cmd.AddCommand(
		newTokenCmd(app),
		newSummaryCmd(app),
		newExportCmd(app),
		newCategoriesCmd(app),
	)
	return cmd
}

// windowFlags are the --start and --end flags shared by summary and export.
type windowFlags struct {
	token string
	start string
	end   string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.token, "token", os.Getenv("GHK_TOKEN"), "Auth service token (default $GHK_TOKEN)")
	cmd.Flags().StringVar(&f.start, "start", "", "First day, YYYY-MM-DD (default first of this month)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day, YYYY-MM-DD (default end of this month)")
}

// window resolves the flags to a calendar window.
func (f *windowFlags) window(now time.Time) (report.Window, error) {
	month := report.MonthWindow(now)
	start, end := month.Start, month.End
	var err error
	if f.start != "" {
		if start, err = time.Parse(dateLayout, f.start); err != nil {
			return report.Window{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if f.end != "" {
		if end, err = time.Parse(dateLayout, f.end); err != nil {
			return report.Window{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if end.Before(start) {
		return report.Window{}, fmt.Errorf("--end must not be before --start")
	}
	return report.NewWindow(start, end), nil
}

// identity verifies the token flag.
func (app *cli) identity(token string) (*models.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("a token is required (--token or GHK_TOKEN)")
	}
	id, err := session.NewTokenProvider(app.cfg.AuthTokenSecret).SignIn(token)
	if err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}
	return id, nil
}

// openStore connects to the configured database and runs fn against it.
func (app *cli) openStore(ctx context.Context, fn func(ctx context.Context, st *gormstore.Store) error) error {
	dbManager, err := database.NewManager(app.cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return err
	}

	st := gormstore.New(dbManager.DB(), nil, logger.Named("store"))
	defer st.Close()

	ctx, cancel := context.WithTimeout(ctx, app.cfg.SummaryTimeout)
	defer cancel()
	return fn(ctx, st)
}
