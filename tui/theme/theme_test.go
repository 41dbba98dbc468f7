package theme

import (
	"testing"

	"github.com/grovetools/uptask/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestNewThemeWithName(t *testing.T) {
	assert.Equal(t, "kanagawa", NewThemeWithName("Kanagawa_Dragon").Name)
	assert.Equal(t, "terminal", NewThemeWithName("ansi").Name)
	assert.Equal(t, "kanagawa", NewThemeWithName("does-not-exist").Name)
}

func TestRenderAlert(t *testing.T) {
	UseIcons("ascii")
	defer UseIcons("")

	th := NewThemeWithName("terminal")
	assert.Empty(t, th.RenderAlert(models.Alert{}))
	assert.Contains(t, th.RenderAlert(models.ErrorAlert("Project not found")), "x Project not found")
	assert.Contains(t, th.RenderAlert(models.SuccessAlert("Task Deleted Successfully")), "✓ Task Deleted Successfully")
}

func TestPriorityStyle(t *testing.T) {
	th := NewThemeWithName("terminal")
	assert.Equal(t, th.PriorityHigh.GetForeground(), th.PriorityStyle(models.PriorityHigh).GetForeground())
	assert.Equal(t, th.Normal.GetForeground(), th.PriorityStyle("Urgent").GetForeground())
}
