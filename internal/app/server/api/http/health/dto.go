package health

// Input represents the input for health check endpoint
type Input struct{}

// Output represents the output for health check endpoint
type Output struct {
	Body Response
}

// Response состояние сервиса, хранилища сущностей и журнала workflow
type Response struct {
	Status  string    `json:"status" example:"OK" doc:"Health status of the service"`
	Storage Component `json:"storage" doc:"Entity store and sync cache"`
	Journal Component `json:"journal" doc:"Workflow journal; unfinished syncs resume only from a durable one"`
	Running int       `json:"running_workflows" doc:"Workflow instances driven by this process"`
}

// Component состояние одного хранилища
type Component struct {
	Backend string `json:"backend" example:"postgres" doc:"postgres, sqlite or memory"`
	Durable bool   `json:"durable" doc:"Data survives a restart"`
	Status  string `json:"status" example:"OK"`
}
