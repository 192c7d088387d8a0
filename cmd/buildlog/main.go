package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/project"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// app carries the global flags and what they resolve to.
type app struct {
	workspace  string
	configPath string
	verbose    bool

	settings *config.Settings
	manager  *project.Manager
	log      *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "buildlog",
		Short: "Android OS image build log manager",
		Long: "buildlog keeps one Markdown build log per Android OS image build.\n" +
			"It discovers build artifacts in a workspace directory, merges them with the\n" +
			"existing BUILD_LOG*.md documents and exports logs as Markdown, HTML, PDF or JSON.\n\n" +
			"For interactive mode, use: buildlog-tui",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.workspace, "workspace", "w", "", "workspace directory (overrides config)")
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show verbose output")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newNewCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newChecksumCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newPreviewCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config or workspace needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "buildlog %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// init loads the settings, sets up logging and creates the manager.
func (a *app) init(cmd *cobra.Command) error {
	a.log = logrus.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.settings = settings

	if a.verbose || settings.Verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}
	a.log.WithField("config", path).Debug("settings loaded")

	a.manager = project.NewManager(settings, a.onProgress)

	workspace := a.workspace
	if workspace == "" {
		workspace = settings.WorkspacePath
	}
	if workspace != "" {
		if err := a.manager.SetWorkspace(workspace); err != nil {
			return err
		}
	}
	return nil
}

// onProgress forwards manager events to the logger.
func (a *app) onProgress(event project.ProgressEvent) {
	switch event.Level {
	case project.LevelVerbose:
		a.log.Debug(event.Message)
	case project.LevelWarning:
		a.log.Warn(event.Message)
	case project.LevelError:
		a.log.Error(event.Message)
	case project.LevelSuccess:
		a.log.WithField("status", "ok").Info(event.Message)
	default:
		a.log.Info(event.Message)
	}
}

func (a *app) requireWorkspace() error {
	if a.manager.Workspace() == "" {
		return fmt.Errorf("%w: pass --workspace or set workspace_path in the config", project.ErrNoWorkspace)
	}
	return nil
}

// loadBuild loads the workspace and returns the build named build.
func (a *app) loadBuild(ctx context.Context, build string) (*model.Record, error) {
	if err := a.requireWorkspace(); err != nil {
		return nil, err
	}

	records, err := a.manager.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	rec := project.Find(records, build)
	if rec == nil {
		return nil, fmt.Errorf("build %q: %w", build, project.ErrNotFound)
	}
	return rec, nil
}

// checkValid refuses invalid records unless force is set, in which case
// the missing fields are only logged.
func (a *app) checkValid(rec *model.Record, force bool) error {
	err := rec.Validate()
	if err == nil {
		return nil
	}

	var verr *model.ValidationError
	if force && errors.As(err, &verr) {
		a.log.WithField("missing", verr.Missing).Warnf("%s is incomplete, continuing (--force)", rec.DisplayName())
		return nil
	}
	return fmt.Errorf("%s: %w (use --force to override)", rec.DisplayName(), err)
}

func execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			return 130
		}
		return 1
	}
	return 0
}

func main() {
	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, newRootCmd())
	stop()
	os.Exit(code)
}
