package phenohunter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		return fmt.Errorf("binary path is required (PHENOHUNTER_INTEGRATION_BINARY)")
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("PHENOHUNTER_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("phenohunter binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "PHENOHUNTER_INTEGRATION"
		envBinary     = "PHENOHUNTER_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Run runs a phenohunter command against a specific database without logs and
// with a minimal pause between batches.
func Run(ctx context.Context, config Config, dbPath string, args ...string) (stdout, stderr []byte, err error) {
	all := append([]string{"--no-log", "--throttle", "1ms", "--db-path", dbPath}, args...)
	return testutils.RunBinary(ctx, nil, config.Binary, all)
}
