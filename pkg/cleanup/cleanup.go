// Package cleanup removes generated files and directories before a release.
// Every removal is best effort: failures are reported per item and the
// walk carries on.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

type Action string

const (
	ActionRemoved Action = "removed"
	ActionFailed  Action = "failed"
	ActionAbsent  Action = "absent"
)

type Outcome struct {
	Path   string
	Dir    bool
	Action Action
	Err    error
}

func (o Outcome) String() string {
	switch {
	case o.Action == ActionAbsent:
		return fmt.Sprintf("Directory %s does not exist.", o.Path)
	case o.Action == ActionFailed && o.Dir:
		return fmt.Sprintf("Error removing directory %s: %v", o.Path, o.Err)
	case o.Action == ActionFailed:
		return fmt.Sprintf("Error removing %s: %v", o.Path, o.Err)
	case o.Dir:
		return fmt.Sprintf("Removed directory: %s", o.Path)
	default:
		return fmt.Sprintf("Removed: %s", o.Path)
	}
}

type Cleaner struct {
	Logger *zap.Logger
	// Report, when set, receives every outcome as it happens.
	Report func(Outcome)
}

func New(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{Logger: logger}
}

func (c *Cleaner) emit(o Outcome) Outcome {
	if o.Action == ActionFailed {
		c.Logger.Warn("cleanup failed", zap.String("path", o.Path), zap.Error(o.Err))
	} else {
		c.Logger.Debug("cleanup", zap.String("path", o.Path), zap.String("action", string(o.Action)))
	}
	if c.Report != nil {
		c.Report(o)
	}
	return o
}

// RemoveMatching deletes every regular file under root whose base name
// matches pattern, except files named exclude. An invalid pattern is the
// only error returned; per-file problems land in the outcomes.
func (c *Cleaner) RemoveMatching(root, pattern, exclude string) ([]Outcome, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	var outcomes []Outcome
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, as are their subtrees.
			if path != root {
				outcomes = append(outcomes, c.emit(Outcome{Path: path, Action: ActionFailed, Err: err}))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if name == exclude || !re.MatchString(name) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			outcomes = append(outcomes, c.emit(Outcome{Path: path, Action: ActionFailed, Err: err}))
			return nil
		}
		outcomes = append(outcomes, c.emit(Outcome{Path: path, Action: ActionRemoved}))
		return nil
	})
	if walkErr != nil {
		outcomes = append(outcomes, c.emit(Outcome{Path: root, Dir: true, Action: ActionFailed, Err: walkErr}))
	}
	return outcomes, nil
}

// RemoveDir deletes root/name recursively. A missing directory is not an
// error.
func (c *Cleaner) RemoveDir(root, name string) Outcome {
	path := filepath.Join(root, name)
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.emit(Outcome{Path: path, Dir: true, Action: ActionAbsent})
		}
		return c.emit(Outcome{Path: path, Dir: true, Action: ActionFailed, Err: err})
	}
	if err := os.RemoveAll(path); err != nil {
		return c.emit(Outcome{Path: path, Dir: true, Action: ActionFailed, Err: err})
	}
	return c.emit(Outcome{Path: path, Dir: true, Action: ActionRemoved})
}

func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Action == ActionFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
