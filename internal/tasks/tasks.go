// Package tasks keeps the lightweight task list the assistant maintains
// alongside conversations.
package tasks

import (
	"fmt"
	"strings"
	"sync"

	"neurabot/internal/storage"
)

// Task is a single to-do entry.
type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Storage is the durable layer the list writes through to.
type Storage interface {
	Put(key string, v any) error
	Get(key string, v any) (bool, error)
}

// List is a persistent ordered task list. Mutations write through
// immediately; out-of-range indices are silent no-ops.
type List struct {
	mu    sync.Mutex
	db    Storage
	tasks []Task
}

// NewList creates an empty list writing through db.
func NewList(db Storage) *List {
	return &List{db: db}
}

// Load hydrates the list from durable storage.
func (l *List) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var tasks []Task
	if _, err := l.db.Get(storage.KeyTasks, &tasks); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	l.tasks = tasks
	return nil
}

// Add appends a pending task.
func (l *List) Add(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tasks = append(l.tasks, Task{Text: text})
	return l.saveLocked()
}

// Toggle flips the done flag of the task at index i.
func (l *List) Toggle(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.tasks) {
		return nil
	}
	l.tasks[i].Done = !l.tasks[i].Done
	return l.saveLocked()
}

// Remove deletes the task at index i; later tasks shift down.
func (l *List) Remove(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.tasks) {
		return nil
	}
	l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	return l.saveLocked()
}

// All returns a copy of the current tasks.
func (l *List) All() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Len reports the number of tasks.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Summary renders the numbered task overview shown in chat.
func (l *List) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return "✅ You have no pending tasks!"
	}

	var b strings.Builder
	b.WriteString("📋 Your tasks:\n")
	for i, task := range l.tasks {
		mark := "❌"
		if task.Done {
			mark = "✔️"
		}
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, task.Text, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (l *List) saveLocked() error {
	if err := l.db.Put(storage.KeyTasks, l.tasks); err != nil {
		return fmt.Errorf("failed to persist tasks: %w", err)
	}
	return nil
}
