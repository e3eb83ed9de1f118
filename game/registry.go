package game

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry owns every live room, keyed by upper-case code.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (reg *Registry) Create(code, hostToken string, now time.Time) (*Room, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrRoomNotFound
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.rooms[code]; ok {
		return nil, ErrRoomExists
	}
	room := newRoom(code, hostToken, now)
	reg.rooms[code] = room
	return room, nil
}

func (reg *Registry) Get(code string) (*Room, bool) {
	code = normalizeCode(code)
	if code == "" {
		return nil, false
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

func (reg *Registry) Exists(code string) bool {
	_, ok := reg.Get(code)
	return ok
}

// Delete finishes the room and then removes it. notify, when set, runs under
// the room lock right after the room is finished. It reports false when the
// room was absent or already deleted.
func (reg *Registry) Delete(code string, notify func(*Room)) bool {
	room, ok := reg.Get(code)
	if !ok {
		return false
	}
	return reg.deleteRoom(room, notify)
}

func (reg *Registry) deleteRoom(room *Room, notify func(*Room)) bool {
	room.mu.Lock()
	return reg.deleteLocked(room, nil, notify)
}

// tryDeleteRoom removes room when cond allows it. A room whose lock is busy
// is mid-transition and therefore skipped.
func (reg *Registry) tryDeleteRoom(room *Room, cond func(*Room) bool) bool {
	if !room.mu.TryLock() {
		return false
	}
	return reg.deleteLocked(room, cond, nil)
}

// deleteLocked expects the room lock held and releases it.
func (reg *Registry) deleteLocked(room *Room, cond func(*Room) bool, notify func(*Room)) bool {
	if room.removed || (cond != nil && !cond(room)) {
		room.mu.Unlock()
		return false
	}
	room.finish()
	room.removed = true
	if notify != nil {
		notify(room)
	}
	room.mu.Unlock()

	reg.remove(room)
	return true
}

// remove drops the map entry only if it still points at room.
func (reg *Registry) remove(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.rooms[room.code] == room {
		delete(reg.rooms, room.code)
	}
}

func (reg *Registry) all() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ListPublic returns every unfinished room, newest first. It never waits on
// a room lock.
func (reg *Registry) ListPublic() []RoomSummary {
	summaries := make([]RoomSummary, 0)
	for _, room := range reg.all() {
		if s := room.public.Load(); s != nil && s.Phase != PhaseFinished {
			summaries = append(summaries, *s)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].Code < summaries[j].Code
	})
	return summaries
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
