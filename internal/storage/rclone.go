package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// commandRunner executes an external command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// RcloneStore implements Store by shelling out to the rclone binary
type RcloneStore struct {
	remote     string
	binary     string
	configPath string
	tempDir    string
	run        commandRunner
}

// rcloneEntry mirrors one element of `rclone lsjson` output
type rcloneEntry struct {
	Path    string    `json:"Path"`
	Name    string    `json:"Name"`
	Size    int64     `json:"Size"`
	ModTime time.Time `json:"ModTime"`
	IsDir   bool      `json:"IsDir"`
}

// NewRcloneStore creates a new RcloneStore for an rclone remote such as "drive:vaultwarden"
func NewRcloneStore(remote string, config RcloneConfig) (*RcloneStore, error) {
	if remote == "" {
		return nil, fmt.Errorf("rclone remote is required")
	}

	binary := config.Binary
	if binary == "" {
		binary = "rclone"
	}

	return &RcloneStore{
		remote:     remote,
		binary:     binary,
		configPath: config.ConfigPath,
		tempDir:    config.TempDir,
		run:        execRunner,
	}, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", name, args[0], ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, args[0], err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return out, nil
}

func (rs *RcloneStore) args(args ...string) []string {
	if rs.configPath != "" {
		args = append(args, "--config", rs.configPath)
	}
	return args
}

// List runs `rclone lsjson --files-only` against the remote
func (rs *RcloneStore) List(ctx context.Context) ([]Object, error) {
	out, err := rs.run(ctx, rs.binary, rs.args("lsjson", rs.remote, "--files-only", "--no-mimetype")...)
	if err != nil {
		return nil, err
	}

	var entries []rcloneEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode rclone lsjson output: %w", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		name := e.Name
		if name == "" {
			name = baseName(e.Path)
		}
		objects = append(objects, Object{
			Name:    name,
			Path:    e.Path,
			Size:    e.Size,
			ModTime: e.ModTime,
		})
	}
	return objects, nil
}

// BatchDelete writes the paths to a temporary list and runs
// `rclone delete --files-from` once for all of them
func (rs *RcloneStore) BatchDelete(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	list, err := os.CreateTemp(rs.tempDir, "retention-delete-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create delete list: %w", err)
	}
	defer os.Remove(list.Name())

	for _, p := range paths {
		if _, err := fmt.Fprintln(list, p); err != nil {
			list.Close()
			return fmt.Errorf("failed to write delete list: %w", err)
		}
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("failed to write delete list: %w", err)
	}

	_, err = rs.run(ctx, rs.binary, rs.args("delete", rs.remote, "--files-from", list.Name())...)
	return err
}

// String returns the rclone remote
func (rs *RcloneStore) String() string {
	return rs.remote
}
