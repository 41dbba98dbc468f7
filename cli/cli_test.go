package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/tui/theme"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerHints(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"auth absent", errors.AuthAbsent(), []string{"not logged in", "uptask login"}},
		{"server message", fmt.Errorf("open: %w", errors.RequestFailed("GET", "/projects/x", 404, "Project not found")), []string{"Project not found"}},
		{"unauthorized", errors.RequestFailed("DELETE", "/projects/x", 401, "Invalid action"), []string{"Invalid action", "expired"}},
		{"validation", errors.Validation(models.MsgAllFieldsRequired), []string{models.MsgAllFieldsRequired}},
		{"plain", fmt.Errorf("boom"), []string{"Error: boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got := NewErrorHandler(&buf, false).Handle(tt.err)
			assert.Equal(t, tt.err, got)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	NewErrorHandler(&buf, true).Handle(errors.RequestFailed("GET", "/projects", 500, "Server Error"))
	assert.Contains(t, buf.String(), `"status": 500`)
}

func TestStandardCommandFlags(t *testing.T) {
	cmd := NewStandardCommand("uptask", "Collaborative task tracking")
	cmd.Run = func(*cobra.Command, []string) {}
	cmd.SetArgs([]string{"--json", "-c", "x.yml", "--no-color"})
	require.NoError(t, cmd.Execute())

	opts := GetOptions(cmd)
	assert.True(t, opts.JSONOutput)
	assert.True(t, opts.NoColor)
	assert.False(t, opts.Verbose)
	assert.Equal(t, "x.yml", opts.ConfigFile)
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("uptask", "Collaborative task tracking")
	sub := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Long:  "List projects you created or collaborate on.\nExamples:\n# offline\nuptask projects --offline",
		Run:   func(*cobra.Command, []string) {},
	}
	sub.Flags().Bool("offline", false, "Read the cached list")
	root.AddCommand(sub)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"projects", "--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "UPTASK PROJECTS")
	assert.Contains(t, out, "List projects you created")
	assert.Contains(t, out, "--offline")
	assert.Contains(t, out, "uptask projects --offline")
	assert.NotContains(t, out, "Examples:")
}

func TestWrapText(t *testing.T) {
	lines := wrapText("alpha beta gamma delta", 11)
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, lines)
	assert.Equal(t, []string{"a", "b"}, wrapText("a\nb", 10))
}

func TestRenderProject(t *testing.T) {
	theme.UseIcons("ascii")
	defer theme.UseIcons("")

	p := &models.Project{
		ID:      "p1",
		Name:    "Website",
		Client:  "ACME",
		DueDate: "2025-01-02T00:00:00.000Z",
		Collaborators: []models.Collaborator{
			{ID: "u2", Name: "Bea", Email: "bea@example.com"},
		},
		Tasks: []models.Task{
			{ID: "t1", Name: "Design", Priority: models.PriorityHigh, State: models.TaskPending},
			{ID: "t2", Name: "Ship", Priority: models.PriorityLow, State: models.TaskComplete,
				CompletedBy: &models.Collaborator{ID: "u2", Name: "Bea"}},
		},
	}

	var buf bytes.Buffer
	RenderProject(&buf, theme.NewThemeWithName("terminal"), p, 60)
	out := buf.String()
	assert.Contains(t, out, "Website")
	assert.Contains(t, out, "due: 2025-01-02")
	assert.Contains(t, out, "bea@example.com")
	assert.Contains(t, out, "[ ] Design")
	assert.Contains(t, out, "by Bea")
}

func TestRenderProjectList(t *testing.T) {
	var buf bytes.Buffer
	th := theme.NewThemeWithName("terminal")
	RenderProjectList(&buf, th, nil)
	assert.Contains(t, buf.String(), "No projects yet")

	buf.Reset()
	RenderProjectList(&buf, th, []models.ProjectSummary{{ID: "p1", Name: "Website", Client: "ACME", DueDate: "2025-01-02T00:00:00.000Z"}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Website")
	assert.Contains(t, lines[1], "2025-01-02")
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Empty(t, RenderMarkdown("  ", 40))
	assert.Contains(t, RenderMarkdown("**bold** text", 40), "bold")
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("ada@example.com\n\nsecret\n"), &out)

	email, err := p.Line("Email", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	name, err := p.Line("Name", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	pw, err := p.Secret("Password")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
	assert.Contains(t, out.String(), "Name [Ada]: ")
}
