package action

import (
	"context"
	"log/slog"
	"sync"

	"lending_go/internal/domain"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the single user-facing outcome of a submit attempt.
type Notification struct {
	Kind        domain.ActionKind `json:"kind"`
	Level       Level             `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
}

type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to slog.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (l *LogNotifier) Notify(n Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarning:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, n.Title,
		slog.String("kind", string(n.Kind)),
		slog.String("description", n.Description))
}

// Inbox keeps the most recent notifications for the view surface.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	limit int
	next  Notifier
}

// NewInbox keeps up to limit notifications and forwards each to next, which may be nil.
func NewInbox(limit int, next Notifier) *Inbox {
	if limit < 1 {
		limit = 1
	}
	return &Inbox{limit: limit, next: next}
}

func (i *Inbox) Notify(n Notification) {
	i.mu.Lock()
	i.items = append(i.items, n)
	if len(i.items) > i.limit {
		i.items = append([]Notification(nil), i.items[len(i.items)-i.limit:]...)
	}
	i.mu.Unlock()
	if i.next != nil {
		i.next.Notify(n)
	}
}

// Recent returns notifications newest first.
func (i *Inbox) Recent() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Notification, len(i.items))
	for j := range i.items {
		out[len(i.items)-1-j] = i.items[j]
	}
	return out
}
