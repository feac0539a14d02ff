// Package pipeline runs one release cycle of an extension: clean, bump the
// patch version, package, move the artifact aside and install it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Promptonauts/relpipe/pkg/cleanup"
	"github.com/Promptonauts/relpipe/pkg/config"
	"github.com/Promptonauts/relpipe/pkg/descriptor"
	"github.com/Promptonauts/relpipe/pkg/models"
	"github.com/Promptonauts/relpipe/pkg/observability"
	"github.com/Promptonauts/relpipe/pkg/runner"
	"github.com/Promptonauts/relpipe/pkg/store"
	"go.uber.org/zap"
)

type Step string

const (
	StepClean     Step = "clean"
	StepLoad      Step = "load"
	StepBump      Step = "bump"
	StepPersist   Step = "persist"
	StepOutputDir Step = "output-dir"
	StepPackage   Step = "package"
	StepRelocate  Step = "relocate"
	StepInstall   Step = "install"
)

type Report struct {
	RunID    string
	Mode     models.RunMode
	Name     string
	From     string
	To       string
	Bumped   bool
	Artifact string
	Steps    []Step
	Cleanup  []cleanup.Outcome
}

func (r *Report) Completed(s Step) bool {
	for _, done := range r.Steps {
		if done == s {
			return true
		}
	}
	return false
}

type Pipeline struct {
	Spec    *models.PipelineSpec
	Mode    models.RunMode
	Runner  runner.Runner
	Cleaner *cleanup.Cleaner
	Store   store.Store
	Metrics *observability.MetricsRegistry
	Logger  *zap.Logger
	Out     io.Writer

	run     *models.RunRecord
	step    int
	current Step
}

type Option func(*Pipeline)

func WithRunner(r runner.Runner) Option {
	return func(p *Pipeline) { p.Runner = r }
}

func WithStore(s store.Store) Option {
	return func(p *Pipeline) { p.Store = s }
}

func WithMetrics(m *observability.MetricsRegistry) Option {
	return func(p *Pipeline) { p.Metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.Logger = l }
}

func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.Out = w }
}

func New(spec *models.PipelineSpec, mode models.RunMode, opts ...Option) *Pipeline {
	if spec == nil {
		spec = config.Default()
	}
	p := &Pipeline{Spec: spec, Mode: mode}
	for _, opt := range opts {
		opt(p)
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Metrics == nil {
		p.Metrics = observability.NewMetricsRegistry()
	}
	if p.Out == nil {
		p.Out = io.Discard
	}
	if p.Runner == nil {
		p.Runner = runner.NewExecRunner(spec.Root, p.Logger)
	}
	if p.Cleaner == nil {
		p.Cleaner = cleanup.New(p.Logger)
	}
	return p
}

// Run executes the steps for the pipeline's mode in order and stops at the
// first fatal failure, returned as *Error. The report is never nil and
// lists what completed before the failure.
func (p *Pipeline) Run(ctx context.Context) (rep *Report, err error) {
	started := time.Now()
	rep = &Report{Mode: p.Mode}
	p.step = 0
	p.current = ""
	p.startRecord(rep)
	p.Metrics.Counter(observability.MetricRuns).Inc()

	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: UnclassifiedFailure, Step: p.current, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			p.Metrics.Counter(observability.MetricRunFailures).Inc()
			p.Logger.Error("release run failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
			p.logf("error", "%s", Describe(err, filepath.Base(p.Spec.Descriptor)))
		}
		p.finishRecord(rep, err, time.Since(started))
	}()

	if p.Mode == models.ModeRelease && config.CleanEnabled(p.Spec) {
		if err := p.do(ctx, rep, StepClean, func() error { return p.clean(rep) }); err != nil {
			return rep, err
		}
	}

	var doc *descriptor.Document
	var name string
	var version descriptor.Version
	err = p.do(ctx, rep, StepLoad, func() error {
		var err error
		doc, err = descriptor.Load(p.descriptorPath())
		if err != nil {
			return err
		}
		if name, err = doc.Name(); err != nil {
			return err
		}
		version, err = doc.Version()
		return err
	})
	if err != nil {
		return rep, err
	}
	rep.Name = name
	rep.From = version.String()

	err = p.do(ctx, rep, StepBump, func() error {
		next, err := version.BumpPatch()
		if err != nil {
			return err
		}
		version = next
		return doc.SetVersion(version)
	})
	if err != nil {
		return rep, err
	}
	rep.To = version.String()

	err = p.do(ctx, rep, StepPersist, func() error {
		if err := doc.Save(p.descriptorPath()); err != nil {
			return p.fsError(err)
		}
		rep.Bumped = true
		p.logf("info", "Updated version to %s", version)
		return nil
	})
	if err != nil {
		return rep, err
	}

	if p.Mode == models.ModeRelease {
		if err := p.do(ctx, rep, StepOutputDir, p.ensureOutputDir); err != nil {
			return rep, err
		}
	}

	err = p.do(ctx, rep, StepPackage, func() error {
		if err := p.invoke(ctx, p.Spec.Packager); err != nil {
			return err
		}
		p.logf("info", "Extension packaged successfully.")
		return nil
	})
	if err != nil {
		return rep, err
	}

	if p.Mode != models.ModeRelease {
		return rep, nil
	}

	artifact := descriptor.ArtifactName(name, version, p.Spec.Extension)
	err = p.do(ctx, rep, StepRelocate, func() error {
		src := filepath.Join(p.Spec.Root, artifact)
		dst := filepath.Join(p.outputDir(), artifact)
		if err := os.Rename(src, dst); err != nil {
			return p.fsError(fmt.Errorf("move artifact: %w", err))
		}
		rep.Artifact = dst
		p.logf("info", "Moved %s to %s", artifact, dst)
		return nil
	})
	if err != nil {
		return rep, err
	}

	if !config.InstallEnabled(p.Spec) {
		return rep, nil
	}
	err = p.do(ctx, rep, StepInstall, func() error {
		// The installer runs from the root, so hand it a root-relative path.
		path := filepath.Join(p.Spec.OutputDir, artifact)
		if filepath.IsAbs(p.Spec.OutputDir) {
			path = rep.Artifact
		}
		cmd := p.Spec.Installer
		cmd.Args = append(append([]string{}, cmd.Args...), path)
		if err := p.invoke(ctx, cmd); err != nil {
			return err
		}
		p.logf("info", "Extension %s installed successfully.", path)
		return nil
	})
	return rep, err
}

func (p *Pipeline) do(ctx context.Context, rep *Report, s Step, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: UnclassifiedFailure, Step: s, Err: err}
	}
	p.step++
	p.current = s
	start := time.Now()
	p.Logger.Debug("step started", zap.String("step", string(s)), zap.Int("index", p.step))

	err := fn()
	p.Metrics.Histogram(observability.StepMetric(string(s))).ObserveSince(start)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			if pe.Step == "" {
				pe.Step = s
			}
			return pe
		}
		return &Error{Kind: classify(err), Step: s, Err: err}
	}
	rep.Steps = append(rep.Steps, s)
	return nil
}

func (p *Pipeline) fsError(err error) error {
	return &Error{Kind: FilesystemOperationFailure, Err: err}
}

func (p *Pipeline) clean(rep *Report) error {
	prev := p.Cleaner.Report
	p.Cleaner.Report = func(o cleanup.Outcome) {
		level := "info"
		if o.Action == cleanup.ActionFailed {
			level = "warn"
			p.Metrics.Counter(observability.MetricCleanupErrors).Inc()
		} else if o.Action == cleanup.ActionRemoved {
			p.Metrics.Counter(observability.MetricCleanupRemoved).Inc()
		}
		p.logf(level, "%s", o)
		if prev != nil {
			prev(o)
		}
	}
	defer func() { p.Cleaner.Report = prev }()

	outcomes, err := p.Cleaner.RemoveMatching(p.Spec.Root, p.Spec.Clean.Pattern, p.Spec.Clean.Exclude)
	if err != nil {
		return &Error{Kind: UnclassifiedFailure, Err: err}
	}
	rep.Cleanup = append(rep.Cleanup, outcomes...)
	for _, dir := range p.Spec.Clean.Dirs {
		rep.Cleanup = append(rep.Cleanup, p.Cleaner.RemoveDir(p.Spec.Root, dir))
	}
	return nil
}

func (p *Pipeline) ensureOutputDir() error {
	dir := p.outputDir()
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return p.fsError(fmt.Errorf("%s exists and is not a directory", dir))
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return p.fsError(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return p.fsError(fmt.Errorf("create output dir: %w", err))
	}
	p.logf("info", "Created %s directory.", p.Spec.OutputDir)
	return nil
}

func (p *Pipeline) invoke(ctx context.Context, cmd models.CommandSpec) error {
	res, err := p.Runner.Run(ctx, cmd.Command, cmd.Args...)
	if err != nil {
		return &Error{Kind: UnclassifiedFailure, Err: err}
	}
	if err := runner.Check(res); err != nil {
		p.Logger.Warn("command failed",
			zap.String("command", cmd.Command),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", strings.TrimSpace(res.Stderr)))
		return err
	}
	return nil
}

func (p *Pipeline) descriptorPath() string {
	return config.Resolve(p.Spec, p.Spec.Descriptor)
}

func (p *Pipeline) outputDir() string {
	return config.Resolve(p.Spec, p.Spec.OutputDir)
}
