package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/nudge/internal/backup"
	"github.com/julianstephens/nudge/internal/config"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/random"
	"github.com/julianstephens/nudge/internal/scheduler"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/storage/sqlite"
	"github.com/julianstephens/nudge/internal/taskofday"
	"github.com/julianstephens/nudge/internal/utils"
)

// Context is bound into every kong command's Run method.
type Context struct {
	Ctx       context.Context
	Store     storage.Provider
	Config    *config.Config
	Entities  *entities.Service
	Scheduler *scheduler.Scheduler
	Selector  *taskofday.Selector
	Out       io.Writer
}

type Option func(*options)

type options struct {
	clock entities.Clock
	rnd   random.Source
	out   io.Writer
	cfg   *config.Config
}

// WithClock fixes the time seen by every engine component.
func WithClock(c entities.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithRandom(src random.Source) Option {
	return func(o *options) { o.rnd = src }
}

func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// NewContext wires the engine services around store.
func NewContext(ctx context.Context, store storage.Provider, opts ...Option) *Context {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	var svcOpts []entities.Option
	if o.clock != nil {
		svcOpts = append(svcOpts, entities.WithClock(o.clock))
	}
	svc := entities.NewService(store, svcOpts...)

	var schedOpts []scheduler.Option
	var selOpts []taskofday.Option
	if o.rnd != nil {
		schedOpts = append(schedOpts, scheduler.WithRandom(o.rnd))
		selOpts = append(selOpts, taskofday.WithRandom(o.rnd))
	}

	return &Context{
		Ctx:       ctx,
		Store:     store,
		Config:    o.cfg,
		Entities:  svc,
		Scheduler: scheduler.New(svc, store, schedOpts...),
		Selector:  taskofday.New(svc, store, selOpts...),
		Out:       o.out,
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// SQLite returns the sqlite store behind the context, if that is the backend.
func (c *Context) SQLite() (*sqlite.Store, bool) {
	s, ok := c.Store.(*sqlite.Store)
	return s, ok
}

// BackupManager returns a manager for the sqlite database, or an error for
// backends that cannot be backed up with VACUUM INTO.
func (c *Context) BackupManager() (*backup.Manager, error) {
	if _, ok := c.SQLite(); !ok {
		return nil, fmt.Errorf("backups are only supported for the sqlite backend")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// PerformAutomaticBackup creates a backup before destructive operations and
// only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(c.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDate reads a YYYY-MM-DD date in the configured timezone. An empty
// string yields the current habit day.
func (c *Context) ParseDate(s string) (time.Time, error) {
	if s == "" {
		return c.Scheduler.Today(c.Ctx)
	}
	settings, err := c.Entities.Settings(c.Ctx)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	date, err := utils.ParseDateInLocation(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return date, nil
}

// ParseKind accepts a kind discriminant or one of its short aliases.
func ParseKind(s string) (models.Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return models.ParseKind(s)
}

var kindAliases = map[string]models.Kind{
	"prompt":          models.KindIntervalPrompt,
	"hp":              models.KindIntervalPromptHighPriority,
	"yesno":           models.KindIntervalYesNoPrompt,
	"task":            models.KindOneTimeTask,
	"task-until":      models.KindOneTimeTaskDelayedUntilDate,
	"task-in":         models.KindOneTimeTaskDelayedByDays,
	"repeating":       models.KindRepeatingTask,
	"repeating-until": models.KindRepeatingTaskDelayedUntil,
	"repeating-in":    models.KindRepeatingTaskDelayedByDays,
}

// FormatSchedule describes when an entity comes due.
func FormatSchedule(e models.Entity) string {
	var parts []string
	switch {
	case e.Kind == models.KindIntervalPromptHighPriority:
		parts = append(parts, "daily")
	case e.Kind.HasInterval():
		if e.IntervalDays == 1 {
			parts = append(parts, "every day")
		} else {
			parts = append(parts, fmt.Sprintf("every %d days", e.IntervalDays))
		}
	default:
		parts = append(parts, "once")
	}
	if e.Kind.HasStartAtDate() {
		parts = append(parts, "from "+e.StartAtDate)
	}
	if e.Kind.HasStartInDays() && e.StartInDays > 0 {
		parts = append(parts, fmt.Sprintf("after %d days", e.StartInDays))
	}
	if e.IsDone {
		parts = append(parts, "done")
	}
	return strings.Join(parts, ", ")
}

// DefaultSettingsHint points at the settings command when a value looks off.
const DefaultSettingsHint = "Use '" + constants.AppName + " settings show' to inspect current settings."
