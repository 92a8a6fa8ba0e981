package testing

import (
	"testing"
)

// TestUnit tests the Unit function with different environment configurations
func TestUnit(t *testing.T) {
	tests := []struct {
		name                string
		unitTestsOnly       string
		runIntegrationTests string
		expectedUnit        bool
	}{
		{
			name:          "explicit unit tests only",
			unitTestsOnly: "true",
			expectedUnit:  true,
		},
		{
			name:                "unit only wins over integration",
			unitTestsOnly:       "true",
			runIntegrationTests: "true",
			expectedUnit:        true,
		},
		{
			name:         "default is unit",
			expectedUnit: true,
		},
		{
			name:                "integration disabled",
			runIntegrationTests: "false",
			expectedUnit:        true,
		},
		{
			name:                "integration enabled",
			runIntegrationTests: "true",
			expectedUnit:        testing.Short(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HIERLOG_UNIT_TESTS_ONLY", tt.unitTestsOnly)
			t.Setenv("HIERLOG_RUN_INTEGRATION_TESTS", tt.runIntegrationTests)

			if got := Unit(); got != tt.expectedUnit {
				t.Errorf("Unit() = %v, want %v", got, tt.expectedUnit)
			}
			if Integration() == Unit() {
				t.Error("Integration() must be the inverse of Unit()")
			}
		})
	}
}

func TestNATSURL(t *testing.T) {
	t.Setenv("HIERLOG_NATS_URL", "")
	if NATSURL() != DefaultNATSURL {
		t.Errorf("Expected default URL, got %s", NATSURL())
	}

	t.Setenv("HIERLOG_NATS_URL", "nats://example:4222")
	if NATSURL() != "nats://example:4222" {
		t.Errorf("Expected override, got %s", NATSURL())
	}
}
