package command

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

const (
	testTenant = "demo"
	testSecret = "dev-secret"
	testNow    = 1_700_000_000
)

// fixClock pins the command clock for the duration of the test.
func fixClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Unix(testNow, 0) }
	t.Cleanup(func() { now = prev })
}

// writeConfig writes a CLI config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runApp runs tsqr-cli with the given config file. An empty path points
// at a file that does not exist, so defaults apply.
func runApp(t *testing.T, configPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "missing.yaml")
	}

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err = app.Run(append([]string{"tsqr-cli", "--config", configPath}, args...))
	return out.String(), errOut.String(), err
}

// exitCode returns the exit status carried by err, 0 for nil.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

func mintToken(t *testing.T, p tsqr.Payload) string {
	t.Helper()
	token, err := tsqr.Encode(p, testSecret)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return token
}

func freshPayload(nonce string) tsqr.Payload {
	return tsqr.Payload{
		tsqr.KeyTenantID:      testTenant,
		tsqr.KeyTransactionID: "tx_1",
		tsqr.KeyNonce:         nonce,
		tsqr.KeyTimestamp:     int64(testNow),
	}
}
