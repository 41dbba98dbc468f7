package main

import (
	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "uptask-basic-version",
		Tags: []string{"basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'uptask version'", func(ctx *harness.Context) error {
				bin, err := findUptaskBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "version")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "uptask version should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "uptask", "Output should name the binary"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "Commit:", "Output should contain Commit"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "Built:", "Output should contain the build date")
			}),
		},
	}
}

// SessionRequiredScenario checks that commands needing a session fail cleanly without one.
func SessionRequiredScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "uptask-session-required",
		Description: "Listing projects without a session exits non-zero with a login hint.",
		Tags:        []string{"basic", "session"},
		Steps: []harness.Step{
			harness.NewStep("Run 'uptask projects' logged out", func(ctx *harness.Context) error {
				bin, err := findUptaskBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "projects")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(1, result.ExitCode, "projects should fail without a session"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stderr, "You are not logged in", "stderr should explain the failure"); err != nil {
					return err
				}
				return assert.Contains(result.Stderr, "uptask login", "stderr should point at login")
			}),
		},
	}
}

// LogsEmptyScenario checks 'uptask logs' on a fresh home.
func LogsEmptyScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "uptask-logs-empty",
		Tags: []string{"basic", "logs"},
		Steps: []harness.Step{
			harness.NewStep("Run 'uptask logs --date 2001-01-01'", func(ctx *harness.Context) error {
				bin, err := findUptaskBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(bin, "logs", "--date", "2001-01-01")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "logs should succeed with nothing to show"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "No logs for 2001-01-01", "Output should say there is nothing to show")
			}),
		},
	}
}
