//go:build blackbox

package blackbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var quantfolioBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "quantfolio-blackbox-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	quantfolioBin = filepath.Join(tmp, "quantfolio")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", quantfolioBin, "./cmd/quantfolio")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	cmd := exec.Command(quantfolioBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}

// runErr is run for commands expected to fail.
func runErr(t *testing.T, args ...string) string {
	t.Helper()

	cmd := exec.Command(quantfolioBin, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("command unexpectedly succeeded\nargs: %v\noutput:\n%s", args, string(out))
	}
	return string(out)
}
