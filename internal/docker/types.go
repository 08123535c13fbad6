package docker

// ContainerState classifies the lifecycle state of a named container.
type ContainerState string

// Container lifecycle states. Absent means no container with the name exists.
const (
	StateAbsent  ContainerState = "absent"
	StateRunning ContainerState = "running"
	StateStopped ContainerState = "stopped"
)

// Container represents a Docker container relevant to a build run.
type Container struct {
	ID    string
	Name  string
	State ContainerState
	Image string
}

// ExecConfig describes a command to execute inside a container.
type ExecConfig struct {
	Cmd        []string // Command and arguments (no shell interpretation)
	User       string   // User to run as, empty for the image default
	WorkingDir string   // Working directory, empty for the image default
	Stdin      string   // Data piped to the command's standard input
}

// ExecResult is the captured outcome of an in-container command.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
