package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/output"
	"github.com/mj1618/shopshield/internal/overridelog"
	"github.com/mj1618/shopshield/internal/session"
	"github.com/mj1618/shopshield/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// RunResult is the output of the `run` command.
type RunResult struct {
	OK        bool           `yaml:"ok"              json:"ok"`
	URL       string         `yaml:"url"             json:"url"`
	Session   session.Result `yaml:"session"         json:"session"`
	Steps     int            `yaml:"steps"           json:"steps"`
	Completed int            `yaml:"completed"       json:"completed"`
	Error     string         `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult   `yaml:"results"         json:"results"`
	Guarded   int            `yaml:"guarded"         json:"guarded"`
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a full protection session over an HTML page",
	Long: `Load an HTML page and run a protection session: read settings, check the
whitelist, guard checkout elements, open the countdown gate and watch the
page for inserted elements.

When stdin is a terminal the session is interactive: the countdown is shown
on stderr and you can cancel, or override once it reaches zero.

Otherwise a YAML list of steps is read from --steps or stdin. Each step is an
action name with its parameters as a map.

Supported step types: insert, remove, tick, wait, sleep, override, cancel, reopen, status

Example:
  shopshield run cart.html --url https://shop.example.com/cart <<'EOF'
  - insert: { parent: "#app", html: "<button>Buy now</button>" }
  - override: { note: "too early" }
  - tick: { n: 60 }
  - override: { note: "birthday gift" }
  EOF`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("url", "", "Page URL (default "+defaultPageURL+")")
	runCmd.Flags().String("steps", "", "YAML steps file (- for stdin)")
	runCmd.Flags().Bool("stop-on-error", true, "Stop execution on first failed step")
	runCmd.Flags().String("out", "", "Write the final page to this file")
	runCmd.Flags().Bool("events", false, "Stream guard and gate events to stderr as JSON lines")
	runCmd.Flags().Int("tick-ms", 1000, "Countdown tick interval in milliseconds")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pageURL, _ := cmd.Flags().GetString("url")
	stepsPath, _ := cmd.Flags().GetString("steps")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	out, _ := cmd.Flags().GetString("out")
	events, _ := cmd.Flags().GetBool("events")
	tickMs, _ := cmd.Flags().GetInt("tick-ms")
	if tickMs <= 0 {
		return fmt.Errorf("tick-ms must be > 0")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logStore, err := overridelog.Open(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logStore.Close()

	page, err := loadPage(ctx, args[0], pageURL)
	if err != nil {
		return err
	}

	deps := session.Deps{
		Settings: settings.NewFileStore(cfg.SettingsPath),
		Log:      logStore,
		Logger:   slog.Default(),
		Interval: time.Duration(tickMs) * time.Millisecond,
	}
	if events {
		ew := output.NewEventWriter(os.Stderr)
		deps.OnChange = func(c model.GuardChange) { _ = ew.Write(c) }
	}

	ctrl := session.New(page, deps)
	defer ctrl.Close()

	res, err := ctrl.Start(ctx)
	if err != nil {
		return err
	}

	result := RunResult{OK: true, URL: page.URL(), Session: res}

	interactive := stepsPath == "" && term.IsTerminal(int(os.Stdin.Fd()))
	switch {
	case interactive:
		if res.Active {
			step := interact(ctx, ctrl, os.Stdin, os.Stderr)
			step.Step = 1
			result.Steps, result.Results = 1, []StepResult{step}
			if step.OK {
				result.Completed = 1
			} else {
				result.OK, result.Error = false, step.Error
			}
		}
	default:
		steps, err := readSteps(stepsPath)
		if err != nil {
			return err
		}
		env := &stepEnv{ctrl: ctrl, page: page}
		result.Steps = len(steps)
		result.Results, result.Completed, result.Error = executeSteps(ctx, env, steps, stopOnError)
		result.OK = result.Error == ""
	}

	if n, err := ctrl.Guarded(); err == nil {
		result.Guarded = n
	}

	if out != "" {
		if err := writePage(page, out); err != nil {
			return err
		}
	}

	if err := output.Print(result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("%s", result.Error)
	}
	return nil
}

// readSteps loads YAML steps from path, or from stdin when path is "" or "-".
// Empty input means no steps.
func readSteps(path string) ([]map[string]map[string]interface{}, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read steps: %w", err)
	}

	var steps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	return steps, nil
}
