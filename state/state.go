// Package state persists small pieces of client state between runs, such as
// the project the board last showed.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/uptask/pkg/paths"
	"gopkg.in/yaml.v3"
)

// Keys used by uptask commands.
const (
	KeyLastProject = "board.last_project"
)

// State is a generic map of key-value pairs stored as YAML.
type State map[string]interface{}

// FilePath returns the path to the state file in the uptask state directory.
func FilePath() string {
	return filepath.Join(paths.StateDir(), "state.yml")
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func Load() (State, error) {
	data, err := os.ReadFile(FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

// Save writes state to the state file.
func Save(state State) error {
	path := FilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// GetString returns the string stored under key.
// Returns "" if the key doesn't exist or the value is not a string.
func GetString(key string) (string, error) {
	state, err := Load()
	if err != nil {
		return "", err
	}
	str, _ := state[key].(string)
	return str, nil
}

// Set sets a value in the state.
func Set(key string, value interface{}) error {
	state, err := Load()
	if err != nil {
		return err
	}
	state[key] = value
	return Save(state)
}

// Delete removes a key from the state.
func Delete(key string) error {
	state, err := Load()
	if err != nil {
		return err
	}
	if _, ok := state[key]; !ok {
		return nil
	}
	delete(state, key)
	return Save(state)
}
