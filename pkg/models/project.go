package models

import "strings"

// ProjectSummary is the shape kept in the project list. It never carries tasks or collaborators.
type ProjectSummary struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Client      string `json:"client,omitempty"`
	Creator     string `json:"creator,omitempty"`
}

// Project is the fully expanded project held only while it is open.
type Project struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	DueDate       string         `json:"dueDate"`
	Client        string         `json:"client"`
	Creator       string         `json:"creator"`
	Collaborators []Collaborator `json:"collaborators"`
	Tasks         []Task         `json:"tasks"`
}

// Summary strips the project down to its list representation.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		DueDate:     p.DueDate,
		Client:      p.Client,
		Creator:     p.Creator,
	}
}

// Clone returns a deep copy whose slices can be modified independently.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Collaborators != nil {
		cp.Collaborators = append([]Collaborator(nil), p.Collaborators...)
	}
	if p.Tasks != nil {
		cp.Tasks = make([]Task, len(p.Tasks))
		for i := range p.Tasks {
			cp.Tasks[i] = p.Tasks[i].Clone()
		}
	}
	return &cp
}

// IsAdmin reports whether userID created the project.
func (p *Project) IsAdmin(userID string) bool {
	return p != nil && userID != "" && p.Creator == userID
}

// Task returns the task with the given id.
func (p *Project) Task(id string) (Task, bool) {
	if p == nil {
		return Task{}, false
	}
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Collaborator returns the collaborator with the given id.
func (p *Project) Collaborator(id string) (Collaborator, bool) {
	if p == nil {
		return Collaborator{}, false
	}
	for _, c := range p.Collaborators {
		if c.ID == id {
			return c, true
		}
	}
	return Collaborator{}, false
}

// DueDay returns the date part of DueDate ("2024-05-01T00:00:00.000Z" → "2024-05-01").
func DueDay(dueDate string) string {
	day, _, _ := strings.Cut(dueDate, "T")
	return day
}
