package run

// StatusReport текущий и последний запуск
type StatusReport struct {
	Running bool `json:"running"`
	Current *Run `json:"current,omitempty"`
	Latest  *Run `json:"latest,omitempty"`
}

// StartResult итог запроса на запуск. Отказ не является ошибкой.
type StartResult struct {
	Started    bool   `json:"started"`
	WorkflowID string `json:"workflow_id,omitempty"`
	RunID      int64  `json:"run_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

const (
	ReasonAlreadyRunning = "sync already running"
	ReasonDisabled       = "nightly sync disabled"
)
