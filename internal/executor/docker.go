package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// dockerAPI is the subset of the Docker API the executor uses, extracted
// for mocking in tests.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// DockerExecutor runs each feature in a fresh agent container with the
// project mounted at /workspace.
type DockerExecutor struct {
	api     dockerAPI
	Image   string
	Network string
	Logger  *slog.Logger
}

// NewDockerExecutor creates a container-based executor against the local
// Docker daemon.
func NewDockerExecutor(imageRef, networkName string, logger *slog.Logger) (*DockerExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &DockerExecutor{api: cli, Image: imageRef, Network: networkName, Logger: logger}
	if _, err := e.api.Ping(context.Background()); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker daemon is not reachable: %w", err)
	}
	return e, nil
}

var _ Executor = (*DockerExecutor)(nil)

// Close releases the docker client connection.
func (e *DockerExecutor) Close() error {
	return e.api.Close()
}

// Execute starts a container for the feature and blocks until it exits.
// A non-zero exit status is an execution failure.
func (e *DockerExecutor) Execute(ctx context.Context, projectPath, featureID string, opts Options) error {
	// Pull is best effort: a locally built image has no registry to pull from.
	if reader, err := e.api.ImagePull(ctx, e.Image, image.PullOptions{}); err == nil {
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	env := []string{
		"OVERSEER_PROJECT=/workspace",
		"OVERSEER_FEATURE_ID=" + featureID,
		"OVERSEER_RECOVERY=" + strconv.FormatBool(opts.IsRecovery),
		"OVERSEER_MODEL=" + opts.Model,
		"OVERSEER_THINKING_LEVEL=" + opts.ThinkingLevel,
		"OVERSEER_REASONING_EFFORT=" + opts.ReasoningEffort,
		"OVERSEER_PLANNING_MODE=" + opts.PlanningMode,
		"OVERSEER_WORK_MODE=" + opts.WorkMode,
		"OVERSEER_SKIP_TESTS=" + strconv.FormatBool(opts.SkipTests),
	}

	hostConfig := &container.HostConfig{
		Binds: []string{fmt.Sprintf("%s:/workspace", projectPath)},
	}
	if e.Network != "" {
		hostConfig.NetworkMode = container.NetworkMode(e.Network)
	}

	resp, err := e.api.ContainerCreate(ctx,
		&container.Config{
			Image:      e.Image,
			Env:        env,
			WorkingDir: "/workspace",
		},
		hostConfig, nil, nil, "")
	if err != nil {
		return fmt.Errorf("failed to create agent container: %w", err)
	}
	defer e.api.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})

	if err := e.api.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start agent container: %w", err)
	}

	e.Logger.Info("agent container started", "feature", featureID, "container", resp.ID[:12], "image", e.Image)

	statusCh, errCh := e.api.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return fmt.Errorf("waiting for agent container: %w", err)
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("agent for feature %s exited with status %d", featureID, status.StatusCode)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
