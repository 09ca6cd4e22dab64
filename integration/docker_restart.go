//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

const defaultRestartCmd = "docker compose restart inventory"

// restartServer bounces the process behind baseURL. E2E_RESTART_CMD overrides
// the command, e.g. "systemctl restart inventory" or a kubectl rollout.
func restartServer(t *testing.T, ctx context.Context) {
	t.Helper()

	argv := strings.Fields(getenv("E2E_RESTART_CMD", defaultRestartCmd))
	if len(argv) == 0 {
		t.Fatalf("E2E_RESTART_CMD is empty")
	}

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(argv, " "), err, out)
	}
}
