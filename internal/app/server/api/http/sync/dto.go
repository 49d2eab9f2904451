package sync

import (
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
)

type statusOutput struct {
	Body *run.StatusReport
}

type listRunsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"100" doc:"Число запусков, по умолчанию 20"`
}

type listRunsOutput struct {
	Body []*run.Run
}

type runOutput struct {
	Body *run.Run
}

type runByWorkflowInput struct {
	WorkflowID string `path:"workflowId" doc:"Идентификатор экземпляра workflow"`
}

type deleteRunsInput struct {
	Body struct {
		IDs []int64 `json:"ids" minItems:"1" doc:"ID запусков; активные пропускаются"`
	}
}

type deleteRunsOutput struct {
	Body struct {
		Deleted int `json:"deleted"`
	}
}

type startBody struct {
	Force bool `json:"force,omitempty" doc:"Запустить даже при выключенной ночной синхронизации"`
}

type startInput struct {
	Body *startBody `required:"false"`
}

type startOutput struct {
	Body *run.StartResult
}

type cancelOutput struct {
	Body struct {
		Canceled bool `json:"canceled"`
	}
}

type runningOutput struct {
	Body struct {
		Running bool `json:"running"`
	}
}

type nightly struct {
	Enabled bool `json:"enabled"`
}

type nightlyOutput struct {
	Body nightly
}

type toggleNightlyInput struct {
	Body nightly
}

type retention struct {
	Days int `json:"days" minimum:"1" doc:"Срок хранения истории запусков в днях"`
}

type retentionOutput struct {
	Body retention
}

type updateRetentionInput struct {
	Body retention
}

type settingsOutput struct {
	Body *schedule.Settings
}
