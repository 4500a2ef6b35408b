package schemas

// ConfigureRunRequest represents a request to configure the pending run.
// All values are strings as they would arrive from a form; an empty or
// omitted value means "use the default from the config reference".
type ConfigureRunRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	ConfigPath string `json:"config_path,omitempty" doc:"Configuration reference (path, file://, s3:// or kv://). Defaults to the server's default config" example:"chemprop_run/config/config.yaml"`
	TotalRound string `json:"total_round,omitempty" doc:"Override for total_round (non-negative integer)" example:"5"`
	StartRound string `json:"start_round,omitempty" doc:"Override for start_round (non-negative integer)" example:"0"`
	DataSize   string `json:"data_size,omitempty" doc:"Override for data_size (non-negative integer)" example:"100"`
	Mode       string `json:"mode,omitempty" doc:"Override for mode" example:"default"`
}

// RunArguments represents a fully resolved argument set
type RunArguments struct {
	TotalRound int    `json:"total_round" doc:"Total number of training rounds" minimum:"0"`
	StartRound int    `json:"start_round" doc:"Round to start from" minimum:"0"`
	DataSize   int    `json:"data_size" doc:"Number of samples to train on" minimum:"0"`
	Mode       string `json:"mode" doc:"Training mode"`
}

// RunDescriptorResponse represents the configured run
type RunDescriptorResponse struct {
	ID           string       `json:"id" doc:"Descriptor ID"`
	ConfigPath   string       `json:"config_path" doc:"Configuration reference the defaults were loaded from"`
	Arguments    RunArguments `json:"arguments" doc:"Resolved run arguments"`
	ConfiguredAt string       `json:"configured_at" doc:"Configuration timestamp"`
	State        string       `json:"state" doc:"Registry state" enum:"unconfigured,configured"`
}

// ExecutionResponse represents the result of executing the configured run
type ExecutionResponse struct {
	DescriptorID string       `json:"descriptor_id" doc:"ID of the executed descriptor"`
	ConfigPath   string       `json:"config_path" doc:"Configuration reference of the executed run"`
	Arguments    RunArguments `json:"arguments" doc:"Arguments the run executed with"`
	Status       string       `json:"status" doc:"Execution status" enum:"completed,failed"`
	StartedAt    string       `json:"started_at" doc:"Start timestamp"`
	FinishedAt   string       `json:"finished_at" doc:"Finish timestamp"`
	ExitCode     *int         `json:"exit_code,omitempty" doc:"Exit code of the trainer command, when one was run"`
	RunDir       string       `json:"run_dir,omitempty" doc:"Directory holding the command's logs and run record"`
}

// FormSubmissionResponse reports what a combined form submission did
type FormSubmissionResponse struct {
	Configured *RunDescriptorResponse `json:"configured,omitempty" doc:"Run configured by this submission"`
	Execution  *ExecutionResponse     `json:"execution,omitempty" doc:"Execution triggered by this submission"`
	Message    string                 `json:"message" doc:"Human-readable summary"`
}
