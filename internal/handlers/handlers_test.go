package handlers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/copilot"
	"dev.copilot.gateway/internal/observability/metrics"
	"dev.copilot.gateway/internal/workspace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRunner stands in for the Copilot CLI binary in handler tests.
type stubRunner struct {
	lookPathErr error
	delay       time.Duration
	block       chan struct{}
	runErr      error
	result      *copilot.CommandResult
	onRun       func(dir string)
}

func (r *stubRunner) LookPath(file string) (string, error) {
	if r.lookPathErr != nil {
		return "", r.lookPathErr
	}
	return "/usr/local/bin/" + file, nil
}

func (r *stubRunner) Run(ctx context.Context, dir, name string, args ...string) (*copilot.CommandResult, error) {
	if len(args) == 1 && args[0] == "--version" {
		return &copilot.CommandResult{Stdout: "copilot version 9.9.9\n"}, nil
	}
	if r.block != nil {
		<-r.block
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.onRun != nil {
		r.onRun(dir)
	}
	if r.runErr != nil {
		return nil, r.runErr
	}
	if r.result != nil {
		return r.result, nil
	}
	return &copilot.CommandResult{Stdout: "Hello from Copilot\n", Duration: 5 * time.Millisecond}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(runner copilot.CommandRunner) *copilot.Service {
	log := testLogger()
	cfg := config.CopilotConfig{
		CLIPath:      "copilot",
		DefaultModel: "claude-sonnet-4",
		Timeout:      5 * time.Second,
		GithubToken:  "ghp_test",
	}
	return copilot.NewService(cfg, workspace.NewManager(1<<20, log), runner, log)
}

func newTestChatHandler(runner copilot.CommandRunner) (*ChatHandler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	h := NewChatHandler(newTestService(runner), metrics.NewWithRegistry(reg), testLogger())
	return h, reg
}

// cliOutcomeCount reads copilot_cli_invocations_total for one model and
// outcome pair, zero when the series does not exist yet.
func cliOutcomeCount(t *testing.T, reg *prometheus.Registry, model, outcome string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "copilot_cli_invocations_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["model"] == model && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
