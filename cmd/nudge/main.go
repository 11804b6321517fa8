package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/cli/actions"
	"github.com/julianstephens/nudge/internal/cli/backups"
	"github.com/julianstephens/nudge/internal/cli/items"
	"github.com/julianstephens/nudge/internal/cli/queue"
	"github.com/julianstephens/nudge/internal/cli/settings"
	"github.com/julianstephens/nudge/internal/cli/system"
	"github.com/julianstephens/nudge/internal/cli/today"
	"github.com/julianstephens/nudge/internal/config"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/errors"
	"github.com/julianstephens/nudge/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (YAML). Defaults to $NUDGE_CONFIG_PATH or ~/.config/nudge/config.yaml." type:"path"`
	DB      string `help:"Database location: a sqlite file, a .json file, or 'keyring' for the PostgreSQL connection string in the OS keyring. PostgreSQL connection strings must not embed a password." name:"db"`
	Debug   bool   `help:"Enable debug logging to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize nudge storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Review  system.ReviewCmd  `cmd:"" help:"Review today's queue interactively." default:"1"`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the JSON HTTP API."`

	Add    items.AddCmd    `cmd:"" help:"Add a prompt or task."`
	List   items.ListCmd   `cmd:"" help:"List prompts and tasks."`
	Due    items.DueCmd    `cmd:"" help:"Show everything due now."`
	Answer items.AnswerCmd `cmd:"" help:"Answer a prompt or task."`
	Edit   items.EditCmd   `cmd:"" help:"Edit a prompt or task."`
	Delete items.DeleteCmd `cmd:"" help:"Delete a prompt or task."`

	Queue struct {
		Generate queue.GenerateCmd `cmd:"" help:"Fill the queue for a day." default:"1"`
		List     queue.ListCmd     `cmd:"" help:"Show the queue for a day."`
		Complete queue.CompleteCmd `cmd:"" help:"Complete a queue entry."`
	} `cmd:"" help:"Manage the daily queue."`
	Today today.TodayCmd `cmd:"" help:"Show or complete the task of the day."`

	Action struct {
		Add     actions.AddCmd     `cmd:"" help:"Add an action."`
		List    actions.ListCmd    `cmd:"" help:"List actions." default:"1"`
		Done    actions.DoneCmd    `cmd:"" help:"Record that an action was done today."`
		Finish  actions.FinishCmd  `cmd:"" help:"Finish a finishable action for good."`
		Reopen  actions.ReopenCmd  `cmd:"" help:"Reopen a finished action."`
		Archive actions.ArchiveCmd `cmd:"" help:"Archive or unarchive an action."`
		Delete  actions.DeleteCmd  `cmd:"" help:"Delete an action."`
	} `cmd:"" help:"Manage recurring actions."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`

	Settings struct {
		Show settings.ShowCmd `cmd:"" help:"Show current settings." default:"1"`
		Set  settings.SetCmd  `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`

	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Show   system.KeyringShowCmd   `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Recurring prompts, a daily queue and a task of the day"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Log.Debug,
		ConfigDir: config.ExpandHome("~/.config/" + constants.AppName),
		Level:     cfg.Log.Level,
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	CLI.Serve.Version = constants.Version
	// e.g. "keyring set <connection-string>"
	command := kctx.Command()

	var appCtx *cli.Context
	if strings.HasPrefix(command, "keyring") {
		appCtx = &cli.Context{Ctx: ctx, Config: cfg, Out: os.Stdout}
	} else {
		store, err := cli.OpenStore(cli.Location(CLI.DB, cfg))
		if err != nil {
			errors.Fatal(err)
		}
		defer store.Close()

		// init opens the store itself
		if !strings.HasPrefix(command, "init") {
			if err := store.Load(ctx); err != nil {
				errors.Fatal(err)
			}
		}
		appCtx = cli.NewContext(ctx, store, cli.WithConfig(cfg))
	}

	if err := kctx.Run(appCtx); err != nil {
		stop()
		errors.Fatal(err)
	}
}
