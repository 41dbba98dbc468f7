package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/tui/theme"
	"github.com/muesli/termenv"
)

var (
	mdMu        sync.Mutex
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// markdownStyle picks a fixed glamour style from the active color profile.
// WithAutoStyle is avoided since its terminal queries can block.
func markdownStyle() string {
	if lipgloss.ColorProfile() == termenv.Ascii {
		return "notty"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// RenderMarkdown renders a project or task description for the terminal.
// On any renderer failure the source text is returned.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	style := markdownStyle()
	key := fmt.Sprintf("%s:%d", style, width)

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = r
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderProjectList prints the project list as aligned columns.
func RenderProjectList(w io.Writer, t *theme.Theme, projects []models.ProjectSummary) {
	if len(projects) == 0 {
		fmt.Fprintln(w, t.Muted.Render("No projects yet. Create one with 'uptask project create'."))
		return
	}

	nameW, clientW := len("NAME"), len("CLIENT")
	for _, p := range projects {
		nameW = max(nameW, lipgloss.Width(p.Name))
		clientW = max(clientW, lipgloss.Width(p.Client))
	}
	row := func(id, name, client, due string) string {
		return fmt.Sprintf("%-*s  %-*s  %-10s  %s", nameW, name, clientW, client, due, id)
	}

	fmt.Fprintln(w, t.Bold.Render(row("ID", "NAME", "CLIENT", "DUE")))
	for _, p := range projects {
		fmt.Fprintln(w, row(t.Muted.Render(p.ID), p.Name, p.Client, models.DueDay(p.DueDate)))
	}
}

// TaskLine renders one task as a single line: state icon, name, priority and due day.
func TaskLine(t *theme.Theme, task models.Task) string {
	icon := theme.IconTaskPending
	name := task.Name
	if task.IsComplete() {
		icon = theme.IconTaskDone
		name = t.Completed.Render(name)
	}
	line := fmt.Sprintf("%s %s %s", icon, name, t.PriorityStyle(task.Priority).Render("["+task.Priority+"]"))
	if day := models.DueDay(task.DueDate); day != "" {
		line += " " + t.Muted.Render(day)
	}
	if task.IsComplete() && task.CompletedBy != nil && task.CompletedBy.Name != "" {
		line += " " + t.Muted.Render("by "+task.CompletedBy.Name)
	}
	return line
}

// RenderProject prints a fully loaded project: header, description,
// collaborators and tasks.
func RenderProject(w io.Writer, t *theme.Theme, p *models.Project, width int) {
	if p == nil {
		return
	}
	fmt.Fprintln(w, t.Title.Render(theme.IconProject+" "+p.Name))
	meta := []string{}
	if p.Client != "" {
		meta = append(meta, "client: "+p.Client)
	}
	if day := models.DueDay(p.DueDate); day != "" {
		meta = append(meta, "due: "+day)
	}
	meta = append(meta, "id: "+p.ID)
	fmt.Fprintln(w, t.Muted.Render(strings.Join(meta, "  ")))

	if desc := RenderMarkdown(p.Description, width); desc != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, desc)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Accent.Render("Collaborators"))
	if len(p.Collaborators) == 0 {
		fmt.Fprintln(w, "  "+t.Muted.Render("none"))
	}
	for _, c := range p.Collaborators {
		fmt.Fprintf(w, "  %s %s %s\n", theme.IconPeer, c.Name, t.Muted.Render("<"+c.Email+"> "+c.ID))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Accent.Render("Tasks"))
	if len(p.Tasks) == 0 {
		fmt.Fprintln(w, "  "+t.Muted.Render("none"))
	}
	for _, task := range p.Tasks {
		fmt.Fprintf(w, "  %s %s\n", TaskLine(t, task), t.Muted.Render(task.ID))
	}
}
