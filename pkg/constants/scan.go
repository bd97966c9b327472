package constants

// ScanRunStatus lifecycle of a scan driver run
type ScanRunStatus string

const (
	ScanRunStatusRunning   ScanRunStatus = "RUNNING"
	ScanRunStatusCompleted ScanRunStatus = "COMPLETED"
	ScanRunStatusFailed    ScanRunStatus = "FAILED"
)

func (s ScanRunStatus) String() string {
	return string(s)
}

// ScanTrigger what started a scan run
type ScanTrigger string

const (
	ScanTriggerStartup  ScanTrigger = "STARTUP"
	ScanTriggerSchedule ScanTrigger = "SCHEDULE"
	ScanTriggerManual   ScanTrigger = "MANUAL"
)

func (t ScanTrigger) String() string {
	return string(t)
}

// ComputeStatus outcome of one aggregator call
type ComputeStatus string

const (
	ComputeStatusSuccess ComputeStatus = "Success"
	ComputeStatusSkipped ComputeStatus = "Skipped"
)
