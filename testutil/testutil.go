package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"
)

// SetupHome points every uptask directory at a fresh temp dir for the test.
func SetupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("UPTASK_HOME", dir)
	t.Setenv("UPTASK_LOG_LEVEL", "error")
	return dir
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)[:length]
}

// WaitFor polls cond until it returns true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msgAndArgs ...interface{}) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			t.Fatalf("condition not met within %v: "+format, append([]interface{}{timeout}, msgAndArgs[1:]...)...)
		}
	}
	t.Fatalf("condition not met within %v", timeout)
}
