package telemetry

import (
	"context"
	"testing"
)

var setupTestEnvironments = map[string]bool{}

// SetupForTesting sets up telemetry in a testing environment, ensuring
// that it isn't set up more than once per service name. Without a
// telemetry.json5 in scope this is a no-op, so plain `go test` works
// anywhere.
func SetupForTesting(t testing.TB, serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(testing.Verbose())
	tel, err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}
