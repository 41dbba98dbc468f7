package store

import (
	"context"
	"slices"

	"github.com/grovetools/uptask/pkg/channel"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/sirupsen/logrus"
)

// room is the joined room of the open project and its consumer goroutine.
type room struct {
	id   string
	done chan struct{}
}

// ended reports whether the room's stream has closed, by us or by the transport.
func (r *room) ended() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// joinRoom connects to projectID's room, leaving the current one first, and
// announces this client. A room whose stream dropped is reconnected. Nothing
// is joined once projectID is no longer the open project. Failure to connect
// leaves the project open without live updates.
func (s *Store) joinRoom(ctx context.Context, projectID string) {
	if s.channel == nil {
		return
	}
	s.roomMu.Lock()
	defer s.roomMu.Unlock()

	s.mu.Lock()
	open := s.state.Project != nil && s.state.Project.ID == projectID
	s.mu.Unlock()
	if !open {
		return
	}
	if s.room != nil && s.room.id == projectID && !s.room.ended() {
		return
	}
	s.leaveRoomLocked()

	events, err := s.channel.Connect(ctx, projectID)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", projectID).Warn("live updates unavailable")
		return
	}
	r := &room{id: projectID, done: make(chan struct{})}
	s.room = r

	s.mu.Lock()
	s.state.Room = projectID
	s.state.Peers = nil
	s.mu.Unlock()

	go s.consume(r, events)

	if err := s.channel.Publish(channel.Presence(channel.KindProjectOpened, projectID)); err != nil {
		s.logger.WithError(err).WithField("project_id", projectID).Warn("failed to announce presence")
	}
	s.notify(UpdateRoom, UpdatePeers)
}

// leaveRoom announces departure and disconnects from the current room.
func (s *Store) leaveRoom() {
	if s.channel == nil {
		return
	}
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	s.leaveRoomLocked()
}

func (s *Store) leaveRoomLocked() {
	r := s.room
	if r == nil {
		return
	}
	s.room = nil

	if err := s.channel.Publish(channel.Presence(channel.KindProjectClosed, r.id)); err != nil {
		s.logger.WithError(err).WithField("project_id", r.id).Debug("failed to announce departure")
	}
	if err := s.channel.Disconnect(); err != nil {
		s.logger.WithError(err).WithField("project_id", r.id).Warn("failed to leave room")
	}
	// Once consume returns no event from this room can reach the state.
	<-r.done

	s.mu.Lock()
	s.state.Room = ""
	s.state.Peers = nil
	s.mu.Unlock()
	s.notify(UpdateRoom, UpdatePeers)
}

// consume applies inbound events in delivery order until the stream closes.
func (s *Store) consume(r *room, events <-chan channel.Event) {
	defer close(r.done)
	for ev := range events {
		s.handleEvent(ev)
	}

	s.mu.Lock()
	lost := s.state.Room == r.id
	if lost {
		s.state.Room = ""
		s.state.Peers = nil
	}
	s.mu.Unlock()
	if lost {
		s.logger.WithField("project_id", r.id).Debug("room stream ended")
		s.notify(UpdateRoom, UpdatePeers)
	}
}

func (s *Store) handleEvent(ev channel.Event) {
	log := s.logger.WithFields(logrus.Fields{"type": ev.Type, "client_id": ev.ClientID, "project_id": ev.Room()})

	if ev.Type.IsPresence() {
		s.handlePresence(ev)
		return
	}
	if ev.Task == nil {
		return
	}
	if !s.apply(ev.Type, *ev.Task) {
		log.Debug("ignoring event for a project that is not open")
		return
	}
	log.WithField("task_id", ev.Task.ID).Debug("applied remote event")
}

// apply reconciles a task event into the open project. It reports false when
// the event belongs to another project or no project is open.
func (s *Store) apply(kind channel.Kind, t models.Task) bool {
	s.mu.Lock()
	p := s.state.Project
	if p == nil || t.ProjectID != p.ID {
		s.mu.Unlock()
		return false
	}
	switch kind {
	case channel.KindTaskCreated:
		s.state.Project = s.opts.Policy.TaskCreated(p, t)
	case channel.KindTaskUpdated:
		s.state.Project = s.opts.Policy.TaskUpdated(p, t)
	case channel.KindTaskStateChanged:
		s.state.Project = s.opts.Policy.TaskStateChanged(p, t)
	case channel.KindTaskDeleted:
		s.state.Project = s.opts.Policy.TaskDeleted(p, t)
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.notify(UpdateProject)
	return true
}

// handlePresence keeps the peer list. A client seen for the first time is
// greeted with our own project-opened so it learns about us too.
func (s *Store) handlePresence(ev channel.Event) {
	if ev.ClientID == "" || ev.ClientID == s.channel.ClientID() {
		return
	}
	s.mu.Lock()
	if s.state.Room == "" || ev.ProjectID != s.state.Room {
		s.mu.Unlock()
		return
	}
	known := slices.Contains(s.state.Peers, ev.ClientID)
	switch ev.Type {
	case channel.KindProjectOpened:
		if !known {
			s.state.Peers = append(s.state.Peers, ev.ClientID)
		}
	case channel.KindProjectClosed:
		s.state.Peers = slices.DeleteFunc(s.state.Peers, func(id string) bool { return id == ev.ClientID })
	}
	room := s.state.Room
	s.mu.Unlock()
	s.notify(UpdatePeers)

	if ev.Type == channel.KindProjectOpened && !known {
		if err := s.channel.Publish(channel.Presence(channel.KindProjectOpened, room)); err != nil {
			s.logger.WithError(err).Debug("failed to greet peer")
		}
	}
}

// publish sends a task event to the room, if one is joined.
func (s *Store) publish(kind channel.Kind, t models.Task) {
	if s.channel == nil {
		return
	}
	s.mu.Lock()
	joined := s.state.Room != "" && s.state.Room == t.ProjectID
	s.mu.Unlock()
	if !joined {
		return
	}
	if err := s.channel.Publish(channel.TaskEvent(kind, t)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"type": kind, "task_id": t.ID}).Warn("failed to publish event")
	}
}
