package main

import (
	"fmt"
	"os/exec"
)

// findUptaskBinary finds the uptask binary under test.
// The e2e runner is expected to put the freshly built ./bin on PATH.
func findUptaskBinary() (string, error) {
	path, err := exec.LookPath("uptask")
	if err != nil {
		return "", fmt.Errorf("could not find 'uptask' binary in PATH; build it into ./bin first")
	}
	return path, nil
}
