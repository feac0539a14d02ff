package pipeline

import (
	"fmt"
	"time"

	"github.com/Promptonauts/relpipe/pkg/models"
	"go.uber.org/zap"
)

// logf prints a status line and, when history is enabled, appends it to the
// run's log. History problems are logged and otherwise ignored.
func (p *Pipeline) logf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.Out, msg)
	if p.Store == nil || p.run == nil {
		return
	}
	entry := models.RunLog{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   msg,
		Step:      p.step,
	}
	if err := p.Store.AppendRunLog(p.run.ID, entry); err != nil {
		p.Logger.Warn("append run log", zap.String("run", p.run.ID), zap.Error(err))
	}
}

func (p *Pipeline) startRecord(rep *Report) {
	p.run = nil
	if p.Store == nil {
		return
	}
	now := time.Now().UTC()
	run := &models.RunRecord{
		Mode:           p.Mode,
		Root:           p.Spec.Root,
		DescriptorPath: p.descriptorPath(),
		State:          models.RunRunning,
		StartedAt:      &now,
	}
	if err := p.Store.CreateRun(run); err != nil {
		p.Logger.Warn("record run", zap.Error(err))
		return
	}
	p.run = run
	rep.RunID = run.ID
}

func (p *Pipeline) finishRecord(rep *Report, runErr error, elapsed time.Duration) {
	if p.Store == nil || p.run == nil {
		return
	}
	now := time.Now().UTC()
	p.run.Name = rep.Name
	p.run.FromVersion = rep.From
	if rep.Bumped {
		p.run.ToVersion = rep.To
	}
	p.run.Artifact = rep.Artifact
	p.run.CurrentStep = p.step
	p.run.LatencyMs = elapsed.Milliseconds()
	p.run.CompletedAt = &now
	p.run.State = models.RunCompleted
	if runErr != nil {
		p.run.State = models.RunFailed
		p.run.FailureKind = string(KindOf(runErr))
		p.run.Error = runErr.Error()
	}
	if err := p.Store.UpdateRun(p.run); err != nil {
		p.Logger.Warn("update run", zap.String("run", p.run.ID), zap.Error(err))
	}
}
