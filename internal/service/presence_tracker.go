package service

import (
	"sync"

	"collabnote-be/internal/entity"
)

// IPresenceTracker owns the per-notebook membership sets. All mutation goes
// through its methods under one lock, so partial interleaved updates cannot
// happen. Presence is reported as full snapshots, never deltas.
type IPresenceTracker interface {
	Join(connId, notebookId string)
	Leave(connId, notebookId string)

	// DropConnection removes the connection from every room it belonged to
	// and returns the ids of the rooms it left, so the caller can
	// rebroadcast presence to each of them.
	DropConnection(connId string) []string

	// ActiveUsers resolves the room members through the session registry.
	// Connections that never logged in are skipped. Order is room insertion
	// order, which is stable between membership changes.
	ActiveUsers(notebookId string) []entity.User

	// Members returns the connection ids currently joined to the notebook.
	Members(notebookId string) []string
}

type presenceTracker struct {
	mu       sync.RWMutex
	rooms    map[string][]string // notebook id -> conn ids, insertion ordered
	registry ISessionRegistry
}

func NewPresenceTracker(registry ISessionRegistry) IPresenceTracker {
	return &presenceTracker{
		rooms:    make(map[string][]string),
		registry: registry,
	}
}

func (p *presenceTracker) Join(connId, notebookId string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.rooms[notebookId] {
		if id == connId {
			return
		}
	}
	p.rooms[notebookId] = append(p.rooms[notebookId], connId)
}

func (p *presenceTracker) Leave(connId, notebookId string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(connId, notebookId)
}

func (p *presenceTracker) DropConnection(connId string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var left []string
	for notebookId, members := range p.rooms {
		for _, id := range members {
			if id == connId {
				left = append(left, notebookId)
				break
			}
		}
	}
	for _, notebookId := range left {
		p.removeLocked(connId, notebookId)
	}
	return left
}

func (p *presenceTracker) ActiveUsers(notebookId string) []entity.User {
	p.mu.RLock()
	members := make([]string, len(p.rooms[notebookId]))
	copy(members, p.rooms[notebookId])
	p.mu.RUnlock()

	users := make([]entity.User, 0, len(members))
	for _, connId := range members {
		if user, ok := p.registry.WhoIs(connId); ok {
			users = append(users, *user)
		}
	}
	return users
}

func (p *presenceTracker) Members(notebookId string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members := make([]string, len(p.rooms[notebookId]))
	copy(members, p.rooms[notebookId])
	return members
}

func (p *presenceTracker) removeLocked(connId, notebookId string) {
	members := p.rooms[notebookId]
	for i, id := range members {
		if id == connId {
			p.rooms[notebookId] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(p.rooms[notebookId]) == 0 {
		delete(p.rooms, notebookId)
	}
}
