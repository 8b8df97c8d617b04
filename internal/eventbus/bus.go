package eventbus

import (
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/crewdesk/internal/task"
)

type EventType string

const (
	TaskAdded   EventType = "task.added"
	TaskUpdated EventType = "task.updated"
	TaskDeleted EventType = "task.deleted"
)

// Event is published after the backend confirmed a change. Task is the
// server record, nil for TaskDeleted.
type Event struct {
	ID        string
	Type      EventType
	TaskID    int
	Task      *task.Task
	CreatedAt time.Time
}

func (e *Event) ResourceID() string {
	return strconv.Itoa(e.TaskID)
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, taskID int, t *task.Task) {
	b.Publish(&Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		TaskID:    taskID,
		Task:      t,
		CreatedAt: time.Now(),
	})
}
