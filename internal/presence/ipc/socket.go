package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

const (
	socketPrefix   = "discord-ipc-"
	maxSocketIndex = 10
)

// socketEnv lists the variables Discord uses to pick its socket directory
var socketEnv = []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"}

// DialSocket connects to the first discord-ipc socket that accepts
func DialSocket(ctx context.Context) (net.Conn, error) {
	return dialFirst(ctx, socketPaths(socketDirs()))
}

func socketDirs() []string {
	var dirs []string
	for _, name := range socketEnv {
		if v := os.Getenv(name); v != "" {
			dirs = append(dirs, v)
		}
	}
	return append(dirs, "/tmp")
}

// socketPaths expands dirs to candidate sockets. Flatpak and Snap
// builds of Discord put the socket one level deeper.
func socketPaths(dirs []string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, dir := range dirs {
		if seen[dir] {
			continue
		}
		seen[dir] = true

		for _, base := range []string{
			dir,
			filepath.Join(dir, "app", "com.discordapp.Discord"),
			filepath.Join(dir, "snap.discord"),
		} {
			for i := range maxSocketIndex {
				paths = append(paths, filepath.Join(base, fmt.Sprintf("%s%d", socketPrefix, i)))
			}
		}
	}
	return paths
}

func dialFirst(ctx context.Context, paths []string) (net.Conn, error) {
	var d net.Dialer
	for _, p := range paths {
		conn, err := d.DialContext(ctx, "unix", p)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, errors.New("no discord-ipc socket found")
}
