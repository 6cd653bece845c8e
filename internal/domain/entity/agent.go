package entity

import "time"

// Status is the runtime status of an agent's isolation unit.
// Raw container states (e.g. "created", "paused") pass through on refresh;
// the named constants are the ones the lifecycle manager assigns itself.
type Status string

const (
	StatusRunning     Status = "running"
	StatusExited      Status = "exited"
	StatusNotFound    Status = "not_found"
	StatusUnreachable Status = "unreachable"
	StatusUnhealthy   Status = "unhealthy"
)

// Agent is a tracked identity bound to one isolated execution unit and one
// resolved instruction prompt. All fields except Status are immutable after
// creation; Status is recomputed from the isolation runtime on every read.
type Agent struct {
	ID           string    `json:"agent_id"`
	Name         string    `json:"agent_name"`
	Type         string    `json:"agent_type"`
	ModelName    string    `json:"model_name"`
	Deployment   string    `json:"deployment_name"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	TemplateUsed string    `json:"template_used,omitempty"`
	ContainerID  string    `json:"container_id"`
	Endpoint     string    `json:"endpoint"`
	Port         string    `json:"port"`
	CreatedAt    time.Time `json:"created_at"`
	Status       Status    `json:"status"`
}
