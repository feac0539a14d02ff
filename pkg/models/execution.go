package models

import "time"

type RunState string

const (
	RunPending   RunState = "Pending"
	RunRunning   RunState = "Running"
	RunFailed    RunState = "Failed"
	RunCompleted RunState = "Completed"
)

type RunMode string

const (
	ModeRelease RunMode = "release"
	ModePackage RunMode = "package"
)

type RunRecord struct {
	ID             string     `json:"id"`
	Mode           RunMode    `json:"mode"`
	Root           string     `json:"root"`
	DescriptorPath string     `json:"descriptorPath"`
	Name           string     `json:"name,omitempty"`
	FromVersion    string     `json:"fromVersion,omitempty"`
	ToVersion      string     `json:"toVersion,omitempty"`
	Artifact       string     `json:"artifact,omitempty"`
	State          RunState   `json:"state"`
	FailureKind    string     `json:"failureKind,omitempty"`
	Error          string     `json:"error,omitempty"`
	CurrentStep    int        `json:"currentStep"`
	Logs           []RunLog   `json:"-"`
	LatencyMs      int64      `json:"latencyMs"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type RunLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Step      int       `json:"step"`
}
