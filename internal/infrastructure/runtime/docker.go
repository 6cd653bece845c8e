package runtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"
)

// ErrUnitNotFound reports that the runtime has no unit for a handle.
var ErrUnitNotFound = errors.New("unit not found")

// Docker implements Runtime against the local Docker engine.
type Docker struct {
	cli    *client.Client
	logger *zap.Logger
}

// NewDocker connects to the Docker engine from the environment
// (DOCKER_HOST etc.), negotiating the API version.
func NewDocker(logger *zap.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connect docker: %w", err)
	}
	return &Docker{cli: cli, logger: logger}, nil
}

var _ Runtime = (*Docker)(nil)

// Run creates and starts a container per spec. The internal port is published
// to a host port picked by the engine.
func (d *Docker) Run(ctx context.Context, spec RunSpec) (string, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(spec.InternalPort))
	if err != nil {
		return "", fmt.Errorf("invalid internal port %d: %w", spec.InternalPort, err)
	}

	env := make([]string, 0, len(spec.Env))
	for k, val := range spec.Env {
		env = append(env, k+"="+val)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          env,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			// Empty HostPort = anonymous publish, engine assigns one.
			port: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: ""}},
		},
		Binds: spec.Binds,
		Resources: container.Resources{
			Memory: spec.MemoryLimit,
		},
	}

	created, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		// The container exists but never started; remove it so the caller
		// doesn't have to distinguish this from a pre-creation failure.
		_ = d.ForceRemove(ctx, created.ID)
		return "", fmt.Errorf("start container: %w", err)
	}

	d.logger.Info("Container started",
		zap.String("name", spec.Name),
		zap.String("container_id", created.ID[:12]),
		zap.String("image", spec.Image),
	)
	return created.ID, nil
}

// Inspect reports container status and the assigned host port.
func (d *Docker) Inspect(ctx context.Context, handle string) (*UnitState, error) {
	info, err := d.cli.ContainerInspect(ctx, handle)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("inspect container: %w", err)
	}

	state := &UnitState{}
	if info.State != nil {
		state.Status = info.State.Status
	}

	if info.NetworkSettings != nil {
		for _, bindings := range info.NetworkSettings.Ports {
			if len(bindings) > 0 && bindings[0].HostPort != "" {
				state.HostPort = bindings[0].HostPort
				break
			}
		}
	}

	return state, nil
}

// ForceRemove removes a container unconditionally. Removing an already-gone
// container is not an error.
func (d *Docker) ForceRemove(ctx context.Context, handle string) error {
	err := d.cli.ContainerRemove(ctx, handle, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("remove container: %w", err)
	}
	return nil
}
