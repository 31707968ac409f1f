package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mgx/internal/auth"
	"github.com/desertthunder/mgx/internal/repositories"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/session"
	"github.com/desertthunder/mgx/internal/shared"
	"github.com/desertthunder/mgx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	engine  services.EngineClient
	raw     *services.RawService
	channel *auth.Channel
	logger  *log.Logger
	output  io.Writer
	input   io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Engine  services.EngineClient
	Raw     *services.RawService
	Channel *auth.Channel
	Logger  *log.Logger
	Output  io.Writer
	Input   io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Engine == nil {
		opts.Engine = services.NewEngineService(opts.Config.Engine, nil)
	}
	if opts.Raw == nil {
		opts.Raw = services.NewRawService(opts.Config.Engine.BaseURL, nil)
	}
	if opts.Channel == nil {
		opts.Channel = auth.NewChannel(opts.Config.Engine.BaseURL, opts.Config.Callback, nil, opts.Logger)
	}

	return &Runner{
		config:  opts.Config,
		engine:  opts.Engine,
		raw:     opts.Raw,
		channel: opts.Channel,
		logger:  opts.Logger,
		output:  opts.Output,
		input:   opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, migrateCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// orchestrator builds a fresh orchestrator for one migration run.
func (r *Runner) orchestrator(attempts tasks.AttemptRecorder) *tasks.Orchestrator {
	poller := session.NewPoller(r.engine, r.config.Engine.PollInterval(), r.logger)
	gateway := session.NewGateway(r.engine, r.logger)
	return tasks.NewOrchestrator(r.engine, poller, gateway, attempts, r.logger)
}

// history opens the attempt repository backed by the configured database.
//
// Callers must close the returned handle.
func (r *Runner) history() (*repositories.AttemptRepository, *sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return repositories.NewAttemptRepository(db), db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
