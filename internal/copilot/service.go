package copilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"dev.copilot.gateway/internal/config"
	"dev.copilot.gateway/internal/models"
	"dev.copilot.gateway/internal/workspace"
)

const (
	versionProbeTimeout = 10 * time.Second
	stderrTailLimit     = 2000
	fallbackCLIVersion  = "copilot-cli"
)

// Completion is the outcome of one successful CLI invocation.
type Completion struct {
	Content     string
	Files       []models.WorkspaceFile
	WorkspaceID string
	Model       string
	CLIVersion  string
	Usage       models.Usage
	Duration    time.Duration
}

// HealthStatus reports CLI readiness for the health endpoint.
type HealthStatus struct {
	Available    bool   `json:"available"`
	Error        string `json:"error,omitempty"`
	Version      string `json:"version"`
	HasToken     bool   `json:"has_token"`
	DefaultModel string `json:"default_model"`
}

// Service translates chat requests into Copilot CLI invocations, each
// executed in a throwaway workspace directory.
type Service struct {
	cfg    config.CopilotConfig
	runner CommandRunner
	ws     *workspace.Manager
	log    *logrus.Logger
	sem    *semaphore.Weighted

	mu         sync.Mutex
	cliVersion string
}

// NewService wires a Service. A nil runner gets the default exec-backed
// one, with the configured GitHub token forwarded to the CLI process.
func NewService(cfg config.CopilotConfig, ws *workspace.Manager, runner CommandRunner, log *logrus.Logger) *Service {
	if runner == nil {
		var extraEnv []string
		if cfg.GithubToken != "" {
			extraEnv = append(extraEnv,
				"GH_TOKEN="+cfg.GithubToken,
				"GITHUB_TOKEN="+cfg.GithubToken,
			)
		}
		runner = NewExecRunner(extraEnv...)
	}

	var sem *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	return &Service{
		cfg:    cfg,
		runner: runner,
		ws:     ws,
		log:    log,
		sem:    sem,
	}
}

// Complete flattens the conversation into a prompt, runs the CLI inside a
// fresh workspace and returns the cleaned output together with any files
// the CLI wrote. The workspace is removed before returning.
func (s *Service) Complete(ctx context.Context, messages []models.ChatMessage, model string) (*Completion, error) {
	if model == "" {
		model = s.cfg.DefaultModel
	}

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("waiting for CLI slot: %w", err)
		}
		defer s.sem.Release(1)
	}

	cliPath, err := s.runner.LookPath(s.cfg.CLIPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCLINotFound, s.cfg.CLIPath)
	}

	ws, err := s.ws.Create()
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	defer s.ws.Remove(ws.Dir)

	prompt := BuildPrompt(messages)
	args := []string{"-p", prompt, "--model", model, "-s", "--allow-all-tools", "--no-color"}

	s.log.WithFields(logrus.Fields{
		"workspace": ws.ID,
		"model":     model,
	}).Info("Invoking Copilot CLI")

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.runner.Run(runCtx, ws.Dir, cliPath, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrCLITimeout, s.cfg.Timeout)
		}
		return nil, fmt.Errorf("running copilot CLI: %w", err)
	}
	if result.ExitCode != 0 {
		return nil, &ExitError{ExitCode: result.ExitCode, Stderr: stderrTail(result.Stderr)}
	}

	content := CleanOutput(result.Stdout)

	files, err := s.ws.Collect(ws.Dir)
	if err != nil {
		s.log.WithError(err).Warn("Workspace scan failed, returning response without files")
		files = nil
	}

	usage := models.Usage{
		PromptTokens:     countWords(prompt),
		CompletionTokens: countWords(content),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	s.log.WithFields(logrus.Fields{
		"workspace": ws.ID,
		"model":     model,
		"duration":  result.Duration.Round(time.Millisecond).String(),
		"files":     len(files),
	}).Info("Copilot CLI completed")

	return &Completion{
		Content:     content,
		Files:       files,
		WorkspaceID: ws.ID,
		Model:       model,
		CLIVersion:  s.cachedCLIVersion(ctx),
		Usage:       usage,
		Duration:    result.Duration,
	}, nil
}

// CLIVersion probes `copilot --version` and caches the first success.
func (s *Service) CLIVersion(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cliVersion != "" {
		v := s.cliVersion
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	cliPath, err := s.runner.LookPath(s.cfg.CLIPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCLINotFound, s.cfg.CLIPath)
	}

	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	result, err := s.runner.Run(probeCtx, "", cliPath, "--version")
	if err != nil {
		return "", fmt.Errorf("probing copilot version: %w", err)
	}
	if result.ExitCode != 0 {
		return "", &ExitError{ExitCode: result.ExitCode, Stderr: stderrTail(result.Stderr)}
	}

	version := firstNonEmptyLine(result.Stdout)
	if version == "" {
		return "", errors.New("copilot CLI produced no version output")
	}

	s.mu.Lock()
	s.cliVersion = version
	s.mu.Unlock()
	return version, nil
}

// cachedCLIVersion never fails: response metadata falls back to a
// generic label when the probe cannot run.
func (s *Service) cachedCLIVersion(ctx context.Context) string {
	version, err := s.CLIVersion(ctx)
	if err != nil {
		return fallbackCLIVersion
	}
	return version
}

// Health reports whether the gateway can serve chat requests right now.
// Available requires both a working CLI binary and a configured token.
func (s *Service) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		HasToken:     s.cfg.GithubToken != "",
		DefaultModel: s.cfg.DefaultModel,
	}

	version, err := s.CLIVersion(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Version = version

	if !status.HasToken {
		status.Error = "no GitHub token configured (set GH_TOKEN or GITHUB_TOKEN)"
		return status
	}

	status.Available = true
	return status
}

// Models returns the supported model catalog.
func (s *Service) Models() []models.ModelInfo {
	return Models()
}

// DefaultModel returns the model used when requests omit one.
func (s *Service) DefaultModel() string {
	return s.cfg.DefaultModel
}

func firstNonEmptyLine(text string) string {
	text = ansiEscape.ReplaceAllString(text, "")
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > stderrTailLimit {
		stderr = stderr[len(stderr)-stderrTailLimit:]
	}
	return stderr
}
