package resource

import "github.com/nerrad567/gray-logic-edge/internal/notification"

// PutHandler is told about an accepted remote PUT after the value is stored.
type PutHandler interface {
	OnPut(r *Resource, value []byte)
}

// PostHandler executes a remote POST.
type PostHandler interface {
	OnPost(r *Resource, payload []byte)
}

// NotifyHandler receives delivery status for an observable resource, after
// the tracker has applied it.
type NotifyHandler interface {
	OnNotify(r *Resource, status notification.Status, state notification.State)
}

// PutFunc adapts a function to PutHandler.
type PutFunc func(r *Resource, value []byte)

// OnPut calls f(r, value).
func (f PutFunc) OnPut(r *Resource, value []byte) { f(r, value) }

// PostFunc adapts a function to PostHandler.
type PostFunc func(r *Resource, payload []byte)

// OnPost calls f(r, payload).
func (f PostFunc) OnPost(r *Resource, payload []byte) { f(r, payload) }

// NotifyFunc adapts a function to NotifyHandler.
type NotifyFunc func(r *Resource, status notification.Status, state notification.State)

// OnNotify calls f(r, status, state).
func (f NotifyFunc) OnNotify(r *Resource, status notification.Status, state notification.State) {
	f(r, status, state)
}

// Notifier enqueues an outbound change notification. Implementations must
// not block on network I/O.
//
// attempt identifies the notification to the resource's tracker; delivery
// statuses for it are reported back through Resource.HandleDelivery.
type Notifier interface {
	NotifyValue(path Path, value []byte, attempt uint64)
}

// Logger defines the logging interface used by resources.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
