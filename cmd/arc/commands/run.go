package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/arclang/arc/internal/display"
	"github.com/arclang/arc/internal/executor"
	"github.com/arclang/arc/internal/loader"
	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/script"
	"github.com/arclang/arc/internal/selector"
	"github.com/arclang/arc/internal/transport"
	"github.com/arclang/arc/internal/transport/local"
	"github.com/arclang/arc/internal/transport/remote"
)

// RunCommand implements `arc run` (§6).
type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path string

	tags       []string
	allTags    bool
	systems    []string
	groups     []string
	allSystems bool
	dryRun     bool
	noReqs     bool
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run tasks against selected systems.")
	c.Cmd.Arg("path", "Project directory (defaults to the current directory).").Default(".").StringVar(&c.path)

	c.Cmd.Flag("tag", "Select tasks by tag. Can be repeated.").Short('t').StringsVar(&c.tags)
	c.Cmd.Flag("all-tags", "Select every task. Cannot be combined with --tag.").BoolVar(&c.allTags)
	c.Cmd.Flag("system", "Target a system by name. Can be repeated.").Short('s').StringsVar(&c.systems)
	c.Cmd.Flag("group", "Target a group by name. Can be repeated.").Short('g').StringsVar(&c.groups)
	c.Cmd.Flag("all-systems", "Target every declared system.").BoolVar(&c.allSystems)
	c.Cmd.Flag("dry-run", "Evaluate `when` guards but skip handler execution.").Short('d').BoolVar(&c.dryRun)
	c.Cmd.Flag("no-reqs", "Disable the requires-closure step of the selector.").BoolVar(&c.noReqs)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	if !c.allTags && len(c.tags) == 0 {
		return &CodedError{Code: 3, Err: fmt.Errorf("one of --tag or --all-tags is required")}
	}
	if c.allTags && len(c.tags) > 0 {
		return &CodedError{Code: 3, Err: fmt.Errorf("--tag and --all-tags cannot be combined")}
	}
	if !c.allSystems && len(c.systems) == 0 && len(c.groups) == 0 {
		return &CodedError{Code: 3, Err: fmt.Errorf("one of --system, --group, or --all-systems is required")}
	}

	l, err := loader.New(loader.Config{
		Logger:    logger,
		NewTarget: newTransport(logger),
		HomePath:  homedir.HomeDir(),
		Args:      os.Args,
	})
	if err != nil {
		return fmt.Errorf("could not build loader: %w", err)
	}

	res, err := l.Load(c.path)
	if err != nil {
		return &CodedError{Code: 2, Err: fmt.Errorf("could not load project: %w", err)}
	}
	defer func() { _ = res.Runtime.Close() }()

	reg := res.Builder.Registry()

	sel, err := selector.Select(reg, selector.Filters{
		Tags:       c.tags,
		AllTags:    c.allTags,
		Systems:    c.systems,
		Groups:     c.groups,
		AllSystems: c.allSystems,
		NoReqs:     c.noReqs,
	})
	if err != nil {
		return &CodedError{Code: 2, Err: fmt.Errorf("could not select tasks: %w", err)}
	}

	display.PrintResolution(c.rootCmd.Stdout, sel.Systems, sel.EffectiveList)

	exec, err := executor.New(executor.Config{
		Registry: reg,
		Invoker:  res.Runtime,
		Logger:   logger,
		DryRun:   c.dryRun,
	})
	if err != nil {
		return fmt.Errorf("could not build executor: %w", err)
	}

	outcome, err := exec.Run(ctx, sel.Systems, sel.EffectiveList)
	if err != nil {
		return fmt.Errorf("could not run tasks: %w", err)
	}

	display.PrintReport(c.rootCmd.Stdout, sel.Systems, reg, sel.EffectiveList, outcome)

	if outcome.Aborted || exec.AnyFailed() {
		return &CodedError{Code: 1, Err: fmt.Errorf("task %q failed on %q", outcome.AbortedTask, outcome.AbortedSystem)}
	}
	return nil
}

// newTransport returns the script.TransportFactory run.go wires into the
// loader: Remote targets dial over SSH/SFTP, Local targets shell out on the
// machine arc itself runs on (§4.A).
func newTransport(logger log.Logger) script.TransportFactory {
	return func(target *model.Target) (transport.Transport, error) {
		switch target.Kind {
		case model.SystemKindRemote:
			return remote.New(remote.Config{
				Name:    target.Name,
				Address: target.Address,
				Port:    target.Port,
				User:    target.User,
				Logger:  logger,
			})
		default:
			return local.New(local.Config{Name: target.Name, Logger: logger})
		}
	}
}
