package testing

import (
	"os"
	"testing"
)

// DefaultNATSURL is used by integration tests when HIERLOG_NATS_URL is unset.
const DefaultNATSURL = "nats://127.0.0.1:4222"

// Unit returns true if running in unit test mode.
// Unit tests should be fast and not require external services.
// Integration tests run only when HIERLOG_RUN_INTEGRATION_TESTS=true and
// neither -short nor HIERLOG_UNIT_TESTS_ONLY=true is given.
func Unit() bool {
	// Check if explicitly running unit tests only (highest priority)
	if os.Getenv("HIERLOG_UNIT_TESTS_ONLY") == "true" {
		return true
	}

	if testing.Short() {
		return true
	}

	return os.Getenv("HIERLOG_RUN_INTEGRATION_TESTS") != "true"
}

// Integration returns true if running in integration test mode.
// Integration tests may require external services like a NATS server.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test if running in unit test mode.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// NATSURL returns the server used by NATS integration tests.
func NATSURL() string {
	if url := os.Getenv("HIERLOG_NATS_URL"); url != "" {
		return url
	}
	return DefaultNATSURL
}
