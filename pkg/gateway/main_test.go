package gateway

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "uptask-gateway-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("UPTASK_HOME", home)
	os.Setenv("UPTASK_LOG_LEVEL", "error")
	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}
