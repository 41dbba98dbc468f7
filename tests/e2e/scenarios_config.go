package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// ConfigLayeringScenario verifies that a project uptask.yml overrides the global one.
func ConfigLayeringScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "uptask-config-layering",
		Description: "Verifies that global and project configs are merged with project values winning.",
		Tags:        []string{"config"},
		Steps: []harness.Step{
			{
				Name: "Setup layered configuration and verify merge",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("layered")
					globalConfigDir := filepath.Join(ctx.HomeDir(), ".config", "uptask")
					if err := fs.CreateDir(globalConfigDir); err != nil {
						return fmt.Errorf("failed to create global config dir: %w", err)
					}

					globalYAML := `backend_url: http://global.example:4000
channel_url: ws://global.example:4000/ws
alerts:
  timeout: 5s
`
					if err := fs.WriteString(filepath.Join(globalConfigDir, "uptask.yml"), globalYAML); err != nil {
						return err
					}

					projectYAML := `backend_url: http://project.example:4000
`
					if err := fs.WriteString(filepath.Join(projectDir, "uptask.yml"), projectYAML); err != nil {
						return err
					}

					bin, err := findUptaskBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(bin, "config", "show").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`uptask config show` failed: %w", result.Error)
					}

					output := result.Stdout
					if err := assert.Contains(output, "backend_url: http://project.example:4000", "project backend_url should win"); err != nil {
						return err
					}
					if err := assert.Contains(output, "channel_url: ws://global.example:4000/ws", "global channel_url should remain"); err != nil {
						return err
					}
					return assert.Contains(output, "timeout: 5s", "global alert timeout should remain")
				},
			},
		},
	}
}

// ConfigInvalidURLScenario checks that a channel_url with the wrong scheme is rejected.
func ConfigInvalidURLScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "uptask-config-invalid-url",
		Description: "A non-websocket channel_url fails config validation.",
		Tags:        []string{"config", "validation"},
		Steps: []harness.Step{
			{
				Name: "Write an invalid channel_url and run config show",
				Func: func(ctx *harness.Context) error {
					projectDir := ctx.NewDir("invalid")
					if err := fs.WriteString(filepath.Join(projectDir, "uptask.yml"), "channel_url: http://relay.example/ws\n"); err != nil {
						return err
					}

					bin, err := findUptaskBinary()
					if err != nil {
						return err
					}

					cmd := ctx.Command(bin, "config", "show").Dir(projectDir)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

					if err := assert.Equal(1, result.ExitCode, "invalid config should fail"); err != nil {
						return err
					}
					return assert.Contains(result.Stderr, "channel_url", "stderr should name the bad field")
				},
			},
		},
	}
}

// ConfigSchemaScenario checks that the JSON schema is printed.
func ConfigSchemaScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "uptask-config-schema",
		Tags: []string{"config"},
		Steps: []harness.Step{
			harness.NewStep("Run 'uptask config schema'", func(ctx *harness.Context) error {
				bin, err := findUptaskBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "config", "schema")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "config schema should succeed"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "backend_url", "schema should describe backend_url"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "channel_url", "schema should describe channel_url")
			}),
		},
	}
}
