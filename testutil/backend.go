package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grovetools/uptask/pkg/models"
)

// Backend is an in-memory implementation of the REST API served over httptest.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser // by email
	tokens   map[string]string    // token -> user id
	projects map[string]*models.Project
	order    []string
	failures map[string]failure
	seq      int

	requests atomic.Int64
}

type fakeUser struct {
	profile   models.Profile
	password  string
	confirmID string
	confirmed bool
}

type failure struct {
	status int
	msg    string
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		users:    make(map[string]*fakeUser),
		tokens:   make(map[string]string),
		projects: make(map[string]*models.Project),
		failures: make(map[string]failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", b.authed(b.listProjects))
	mux.HandleFunc("POST /projects", b.authed(b.createProject))
	mux.HandleFunc("GET /projects/{id}", b.authed(b.getProject))
	mux.HandleFunc("PUT /projects/{id}", b.authed(b.updateProject))
	mux.HandleFunc("DELETE /projects/{id}", b.authed(b.deleteProject))
	mux.HandleFunc("POST /projects/collaborators", b.authed(b.lookupCollaborator))
	mux.HandleFunc("POST /projects/collaborators/{id}", b.authed(b.attachCollaborator))
	mux.HandleFunc("POST /projects/delete-collaborator/{id}", b.authed(b.detachCollaborator))
	mux.HandleFunc("POST /tasks", b.authed(b.createTask))
	mux.HandleFunc("PUT /tasks/{id}", b.authed(b.updateTask))
	mux.HandleFunc("DELETE /tasks/{id}", b.authed(b.deleteTask))
	mux.HandleFunc("POST /tasks/state/{id}", b.authed(b.toggleTask))
	mux.HandleFunc("POST /users", b.register)
	mux.HandleFunc("POST /users/login", b.login)
	mux.HandleFunc("GET /users/confirm/{id}", b.confirm)
	mux.HandleFunc("POST /users/forgot-password", b.forgotPassword)

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		f, ok := b.failures[key]
		delete(b.failures, key)
		b.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]string{"msg": f.msg})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API root to hand to gateway.New.
func (b *Backend) URL() string {
	return b.server.URL
}

// Requests returns how many HTTP requests reached the backend.
func (b *Backend) Requests() int {
	return int(b.requests.Load())
}

// FailNext makes the next request for method and path fail with status and msg.
func (b *Backend) FailNext(method, path string, status int, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, msg: msg}
}

// AddUser registers a confirmed user and returns its profile with a valid token.
func (b *Backend) AddUser(name, email, password string) models.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.newUserLocked(name, email, password)
	u.confirmed = true
	token := "token-" + u.profile.ID
	b.tokens[token] = u.profile.ID
	p := u.profile
	p.Token = token
	return p
}

// ConfirmID returns the confirmation id mailed to email at registration.
func (b *Backend) ConfirmID(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[email]; ok {
		return u.confirmID
	}
	return ""
}

// AddProject stores a project owned by creator and returns it.
func (b *Backend) AddProject(creator models.Profile, name string) models.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &models.Project{
		ID:            b.nextIDLocked("p"),
		Name:          name,
		Description:   name + " description",
		DueDate:       "2030-01-01T00:00:00.000Z",
		Client:        "Acme",
		Creator:       creator.ID,
		Collaborators: []models.Collaborator{},
		Tasks:         []models.Task{},
	}
	b.projects[p.ID] = p
	b.order = append(b.order, p.ID)
	return *p.Clone()
}

// AddTask stores a pending task in project and returns it.
func (b *Backend) AddTask(projectID, name string) models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	task := models.Task{
		ID:          b.nextIDLocked("t"),
		Name:        name,
		Description: name + " description",
		DueDate:     "2030-01-01T00:00:00.000Z",
		Priority:    "Medium",
		State:       models.TaskPending,
		ProjectID:   projectID,
		Revision:    1,
		UpdatedAt:   time.Now().UTC(),
	}
	p := b.projects[projectID]
	p.Tasks = append(p.Tasks, task)
	return task
}

// AddCollaborator attaches user to project directly.
func (b *Backend) AddCollaborator(projectID string, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.projects[projectID]
	p.Collaborators = append(p.Collaborators, models.Collaborator{ID: user.ID, Name: user.Name, Email: user.Email})
}

// Project returns a copy of the stored project.
func (b *Backend) Project(id string) (*models.Project, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.projects[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (b *Backend) newUserLocked(name, email, password string) *fakeUser {
	u := &fakeUser{
		profile:   models.Profile{ID: b.nextIDLocked("u"), Name: name, Email: email},
		password:  password,
		confirmID: RandomString(12),
	}
	b.users[email] = u
	return u
}

func (b *Backend) nextIDLocked(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s%04d", prefix, b.seq)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user models.Profile)

func (b *Backend) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		userID, known := b.tokens[token]
		var user models.Profile
		for _, u := range b.users {
			if u.profile.ID == userID {
				user = u.profile
			}
		}
		b.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid token"})
			return
		}
		h(w, r, user)
	}
}

func (b *Backend) visibleLocked(p *models.Project, user models.Profile) bool {
	if p.Creator == user.ID {
		return true
	}
	_, ok := p.Collaborator(user.ID)
	return ok
}

func (b *Backend) listProjects(w http.ResponseWriter, r *http.Request, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.ProjectSummary{}
	for _, id := range b.order {
		if p := b.projects[id]; b.visibleLocked(p, user) {
			out = append(out, p.Summary())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getProject(w http.ResponseWriter, r *http.Request, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.projects[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Project not found"})
		return
	}
	if !b.visibleLocked(p, user) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid action"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) createProject(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in models.ProjectInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &models.Project{
		ID:            b.nextIDLocked("p"),
		Name:          in.Name,
		Description:   in.Description,
		DueDate:       in.DueDate,
		Client:        in.Client,
		Creator:       user.ID,
		Collaborators: []models.Collaborator{},
		Tasks:         []models.Task{},
	}
	b.projects[p.ID] = p
	b.order = append(b.order, p.ID)
	writeJSON(w, http.StatusOK, p.Summary())
}

func (b *Backend) updateProject(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in models.ProjectInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedLocked(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	p.Name, p.Description, p.DueDate, p.Client = in.Name, in.Description, in.DueDate, in.Client
	writeJSON(w, http.StatusOK, p.Summary())
}

func (b *Backend) deleteProject(w http.ResponseWriter, r *http.Request, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedLocked(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	delete(b.projects, p.ID)
	b.order = slices.DeleteFunc(b.order, func(id string) bool { return id == p.ID })
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Project Deleted"})
}

func (b *Backend) ownedLocked(w http.ResponseWriter, id string, user models.Profile) (*models.Project, bool) {
	p, ok := b.projects[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Project not found"})
		return nil, false
	}
	if p.Creator != user.ID {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid action"})
		return nil, false
	}
	return p, true
}

func (b *Backend) lookupCollaborator(w http.ResponseWriter, r *http.Request, _ models.Profile) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[in.Email]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, models.Collaborator{ID: u.profile.ID, Name: u.profile.Name, Email: u.profile.Email})
}

func (b *Backend) attachCollaborator(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedLocked(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	u, ok := b.users[in.Email]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not found"})
		return
	}
	if u.profile.ID == p.Creator {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "The project creator cannot be a collaborator"})
		return
	}
	if _, exists := p.Collaborator(u.profile.ID); exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "The user already belongs to the project"})
		return
	}
	p.Collaborators = append(p.Collaborators, models.Collaborator{ID: u.profile.ID, Name: u.profile.Name, Email: u.profile.Email})
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Collaborator Added Successfully"})
}

func (b *Backend) detachCollaborator(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedLocked(w, r.PathValue("id"), user)
	if !ok {
		return
	}
	p.Collaborators = slices.DeleteFunc(p.Collaborators, func(c models.Collaborator) bool { return c.ID == in.ID })
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Collaborator Deleted Successfully"})
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in models.TaskInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedLocked(w, in.ProjectID, user)
	if !ok {
		return
	}
	task := models.Task{
		ID:          b.nextIDLocked("t"),
		Name:        in.Name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		State:       models.TaskPending,
		ProjectID:   p.ID,
		Revision:    1,
		UpdatedAt:   time.Now().UTC(),
	}
	p.Tasks = append(p.Tasks, task)
	writeJSON(w, http.StatusOK, task)
}

// findTaskLocked returns the project holding task id and the task's index.
func (b *Backend) findTaskLocked(w http.ResponseWriter, id string) (*models.Project, int, bool) {
	for _, p := range b.projects {
		for i := range p.Tasks {
			if p.Tasks[i].ID == id {
				return p, i, true
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Task not found"})
	return nil, 0, false
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request, user models.Profile) {
	var in models.TaskInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, ok := b.findTaskLocked(w, r.PathValue("id"))
	if !ok {
		return
	}
	if p.Creator != user.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Invalid action"})
		return
	}
	t := &p.Tasks[i]
	t.Name, t.Description, t.DueDate, t.Priority = in.Name, in.Description, in.DueDate, in.Priority
	t.Revision++
	t.UpdatedAt = time.Now().UTC()
	writeTaskWithProject(w, *t, p)
}

func (b *Backend) deleteTask(w http.ResponseWriter, r *http.Request, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, ok := b.findTaskLocked(w, r.PathValue("id"))
	if !ok {
		return
	}
	if p.Creator != user.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Invalid action"})
		return
	}
	p.Tasks = slices.Delete(p.Tasks, i, i+1)
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Task Deleted Successfully"})
}

func (b *Backend) toggleTask(w http.ResponseWriter, r *http.Request, user models.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, ok := b.findTaskLocked(w, r.PathValue("id"))
	if !ok {
		return
	}
	if !b.visibleLocked(p, user) {
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Invalid action"})
		return
	}
	t := &p.Tasks[i]
	t.State = t.State.Toggled()
	t.CompletedBy = nil
	if t.IsComplete() {
		t.CompletedBy = &models.Collaborator{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	t.Revision++
	t.UpdatedAt = time.Now().UTC()
	writeTaskWithProject(w, *t, p)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[in.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "User already registered"})
		return
	}
	b.newUserLocked(in.Name, in.Email, in.Password)
	writeJSON(w, http.StatusOK, map[string]string{"msg": "User created successfully, check your email to confirm your account"})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[in.Email]
	switch {
	case !ok:
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User does not exist"})
	case !u.confirmed:
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Your account has not been confirmed"})
	case u.password != in.Password:
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Wrong password"})
	default:
		token := "token-" + u.profile.ID
		b.tokens[token] = u.profile.ID
		p := u.profile
		p.Token = token
		writeJSON(w, http.StatusOK, p)
	}
}

func (b *Backend) confirm(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.confirmID != "" && u.confirmID == r.PathValue("id") {
			u.confirmed = true
			u.confirmID = ""
			writeJSON(w, http.StatusOK, map[string]string{"msg": "User confirmed successfully"})
			return
		}
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Invalid token"})
}

func (b *Backend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[in.Email]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User does not exist"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "We have sent an email with the instructions"})
}

// writeTaskWithProject embeds the owning project the way the backend does for
// update and state responses.
func writeTaskWithProject(w http.ResponseWriter, t models.Task, p *models.Project) {
	data, _ := json.Marshal(t)
	var doc map[string]interface{}
	_ = json.Unmarshal(data, &doc)
	doc["project"] = p.Summary()
	writeJSON(w, http.StatusOK, doc)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
