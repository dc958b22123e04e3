// =============================================================================
// Gacha POS - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// group is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pos)
//   ├── shift      start | close | show
//   ├── roster     list | add-branch | remove-branch | add-staff | remove-staff | select
//   ├── inventory  list | add | update | delete | import | export | prices
//   ├── checkout   <index>
//   ├── logs       list | sum | delete | edit
//   ├── receive    list | set | delete | migrate | statuses
//   ├── reasons    list | add | remove
//   └── version
//
// SETUP:
//   Before any command runs, the root command:
//   1. Loads .env and the main configuration (defaults if absent)
//   2. Opens the log file (also stderr with --verbose)
//   3. Creates the data directories and opens the stores
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/config"
	"github.com/ginjaninja78/gacha-pos/internal/inventory"
	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/reasons"
	"github.com/ginjaninja78/gacha-pos/internal/receive"
	"github.com/ginjaninja78/gacha-pos/internal/session"
	"github.com/ginjaninja78/gacha-pos/internal/txlog"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is loaded before the configuration so its variables can override it.
var envFile string

// verbose mirrors the log to stderr at debug level.
var verbose bool

// skipSetup marks commands that do not touch the stores.
const skipSetup = "skip-setup"

// app holds everything a command needs. It is populated by setup.
type app struct {
	cfg *config.MainConfig
	log logger.Logger
	loc *time.Location
	fm  *utils.FileManager

	sessions  *session.Store
	inventory *inventory.Store
	txlog     *txlog.Log
	receipts  *receive.Log
	reasons   *reasons.Store

	closeLog func() error
}

var pos *app

// now returns the current time in the configured zone.
func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "Gacha POS - prize counter checkout, inventory and pickup tracking",
	Long: `Gacha POS runs a prize-redemption counter from the command line. It keeps
the prize inventory, records each checkout in the transaction log, tracks prize
pickup in the receive log, and exports the close-of-shift reports.

All data is stored as JSON files in the data directory (default ./logs).

Example Usage:
  pos shift start --branch Taipei --staff Amy --cash 2000
  pos inventory list --search 鬼滅
  pos checkout 3 --hole 40 --big 1 --small 4 --cash 250
  pos shift close`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipSetup] == "true" {
			return nil
		}
		a, err := setup()
		if err != nil {
			return err
		}
		pos = a
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pos != nil && pos.closeLog != nil {
			return pos.closeLog()
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Environment file loaded before the configuration",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Log at debug level to stderr as well as the log file",
	)
}

// setup loads configuration and opens the stores.
func setup() (*app, error) {
	config.LoadDotEnv(envFile)

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", cfg.TimeZone, err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{
		LogFile:  cfg.LogFile,
		Level:    level,
		Console:  verbose,
		Location: loc,
	})
	if err != nil {
		return nil, err
	}

	fm := utils.NewFileManager(cfg.DataDir, cfg.ClosingPath(), cfg.BackupPath())
	if err := fm.EnsureDirectories(); err != nil {
		log.Close()
		return nil, err
	}
	log.Debug("Using data directory %s", cfg.DataDir)

	receiveOpts := receive.Options{
		Statuses: cfg.ReceiveStatuses,
		Methods:  cfg.ReceiveMethods,
		HoldDays: cfg.ReceiveHoldDays,
	}
	return &app{
		cfg:       cfg,
		log:       log,
		loc:       loc,
		fm:        fm,
		sessions:  session.NewStore(cfg.SessionFile, log),
		inventory: inventory.NewStore(cfg.InventoryPath(), fm, log),
		txlog:     txlog.New(cfg.TransactionLogPath(), fm, log),
		receipts:  receive.New(cfg.ReceiveLogPath(), fm, log, receiveOpts),
		reasons:   reasons.NewStore(cfg.ReasonsPath(), log),
		closeLog:  log.Close,
	}, nil
}
