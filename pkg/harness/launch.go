package harness

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Environment variables carried to the launched server process. They
// exist so the process can find the file channel before any file I/O is
// possible; everything else travels through the artifacts themselves.
const (
	// EnvRemote marks a process as having been started by a Session.
	EnvRemote = "JTH_REMOTE"
	// EnvHome is the application's persistent-state root, which doubles
	// as the session directory holding the artifacts.
	EnvHome = "JTH_HOME"
	// EnvPort is the TCP port the server must bind.
	EnvPort = "JTH_PORT"
	// EnvPrefix is the HTTP context path of the server under test.
	EnvPrefix = "JTH_PREFIX"
	// EnvLabel is the human-readable session label, used to tag output.
	EnvLabel = "JTH_LABEL"
	// EnvExecutable is the controller binary's location, recorded for
	// observability (the analog of a code-location property).
	EnvExecutable = "JTH_EXECUTABLE"
)

// Artifact names, fixed relative to the session directory. StepArtifact
// is written by the controller and read by the launched process;
// ErrorArtifact travels the other way and exists only when a step failed.
const (
	StepArtifact  = "step.ser"
	ErrorArtifact = "error.ser"
)

// LaunchDescriptor is the full set of process-start parameters for one
// launch: the server binary plus everything it needs before it can reach
// the file channel.
type LaunchDescriptor struct {
	Binary        string
	Executable    string
	Home          string
	Port          int
	Prefix        string
	ListenAddress string
	Label         string
}

// Args returns the server command line arguments.
func (d *LaunchDescriptor) Args() []string {
	return []string{
		fmt.Sprintf("--http-port=%d", d.Port),
		"--http-listen-address=" + d.ListenAddress,
		"--prefix=" + d.Prefix,
	}
}

// Environ returns the env entries appended to the child's environment.
func (d *LaunchDescriptor) Environ() []string {
	return []string{
		EnvRemote + "=1",
		EnvHome + "=" + d.Home,
		EnvPort + "=" + strconv.Itoa(d.Port),
		EnvPrefix + "=" + d.Prefix,
		EnvLabel + "=" + d.Label,
		EnvExecutable + "=" + d.Executable,
	}
}

// DescriptorFromEnv rebuilds the launch descriptor inside the launched
// process. It fails when the process was not started by a Session or when
// the identity is incomplete.
func DescriptorFromEnv() (*LaunchDescriptor, error) {
	if os.Getenv(EnvRemote) != "1" {
		return nil, errors.New("not inside a harness launch")
	}
	home := os.Getenv(EnvHome)
	if home == "" {
		return nil, fmt.Errorf("%s not set", EnvHome)
	}
	port, err := strconv.Atoi(os.Getenv(EnvPort))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", EnvPort, err)
	}
	return &LaunchDescriptor{
		Home:       home,
		Port:       port,
		Prefix:     os.Getenv(EnvPrefix),
		Label:      os.Getenv(EnvLabel),
		Executable: os.Getenv(EnvExecutable),
	}, nil
}
