package store

import (
	"errors"

	"github.com/Promptonauts/relpipe/pkg/models"
)

var ErrNotFound = errors.New("run not found")

// Store keeps the history of pipeline runs.
type Store interface {
	CreateRun(run *models.RunRecord) error
	GetRun(id string) (*models.RunRecord, error)
	UpdateRun(run *models.RunRecord) error
	ListRuns(limit int) ([]*models.RunRecord, error)
	AppendRunLog(id string, log models.RunLog) error
	GetRunLogs(id string) ([]models.RunLog, error)

	Migrate() error
	Close() error
}
