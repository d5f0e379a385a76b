package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-edge/internal/notification"
)

// Resource is a path-addressable value exposed for remote GET, PUT, POST and
// observation.
//
// A resource belongs to exactly one Directory and is only touched from the
// event dispatcher goroutine, so it carries no lock. Hardware producers never
// hold a *Resource; they post to the bridge and the posted action mutates it.
type Resource struct {
	path       Path
	name       string
	methods    Method
	observable bool
	value      []byte

	put    PutHandler
	post   PostHandler
	notify NotifyHandler

	tracker *notification.Tracker
	dir     *Directory
}

// Path returns the resource path.
func (r *Resource) Path() Path { return r.path }

// Name returns the human-readable name.
func (r *Resource) Name() string { return r.name }

// Methods returns the access mask.
func (r *Resource) Methods() Method { return r.methods }

// Observable reports whether value changes trigger notifications.
func (r *Resource) Observable() bool { return r.observable }

// Tracker returns the notification tracker, or nil if not observable.
func (r *Resource) Tracker() *notification.Tracker { return r.tracker }

// SetValue replaces the value unconditionally.
//
// This is the trusted local path used by hardware actions and by accepted
// PUT requests. For an observable resource the tracker moves to QUEUED and
// the directory's Notifier is asked to enqueue a notification tagged with
// the tracker's attempt number; SetValue never waits for the network.
func (r *Resource) SetValue(v []byte) {
	r.value = append(r.value[:0:0], v...)

	if !r.observable {
		return
	}
	r.tracker.ValueChanged()
	if n := r.dir.notifier; n != nil {
		n.NotifyValue(r.path, r.Value(), r.tracker.Attempts())
	}
}

// SetString stores s as the value.
func (r *Resource) SetString(s string) { r.SetValue([]byte(s)) }

// SetInt stores n as a decimal string.
func (r *Resource) SetInt(n int64) { r.SetValue(strconv.AppendInt(nil, n, 10)) }

// Value returns a copy of the current value.
func (r *Resource) Value() []byte {
	return append([]byte(nil), r.value...)
}

// String returns the value as a string.
func (r *Resource) String() string { return string(r.value) }

// Int parses the value as a decimal integer.
func (r *Resource) Int() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(r.value)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q", ErrNotInteger, r.path, r.value)
	}
	return n, nil
}

// Get is the remote read path. It fails without GET in the mask.
func (r *Resource) Get() ([]byte, error) {
	if !r.methods.Has(MethodGet) {
		return nil, r.notAllowed(MethodGet)
	}
	return r.Value(), nil
}

// Put is the remote write path.
//
// Without PUT in the mask nothing is stored and no handler runs. Otherwise
// the value is stored via SetValue and the PUT handler, if any, is called.
func (r *Resource) Put(v []byte) error {
	if !r.methods.Has(MethodPut) {
		return r.notAllowed(MethodPut)
	}
	r.SetValue(v)
	if r.put != nil {
		r.put.OnPut(r, r.Value())
	}
	return nil
}

// Invoke is the remote execute path. It fails without POST in the mask and
// succeeds as a no-op when no POST handler is bound.
func (r *Resource) Invoke(payload []byte) error {
	if !r.methods.Has(MethodPost) {
		return r.notAllowed(MethodPost)
	}
	if r.post != nil {
		r.post.OnPost(r, payload)
	}
	return nil
}

// HandleStatus applies a status that is not tied to one notification,
// such as a subscription change, and forwards it to the notify handler.
func (r *Resource) HandleStatus(s notification.Status) error {
	if !r.observable {
		return r.notAllowed(0)
	}
	state, err := r.tracker.Apply(s)
	return r.applied(s, state, err)
}

// HandleDelivery applies the delivery status of notification attempt, as
// passed to Notifier.NotifyValue. Statuses of superseded attempts return
// notification.ErrStaleStatus and reach neither the tracker nor the handler.
func (r *Resource) HandleDelivery(attempt uint64, s notification.Status) error {
	if !r.observable {
		return r.notAllowed(0)
	}
	state, err := r.tracker.ApplyAttempt(attempt, s)
	return r.applied(s, state, err)
}

func (r *Resource) applied(s notification.Status, state notification.State, err error) error {
	log := r.dir.logger
	if err != nil {
		log.Debug("notification status ignored", "path", r.path.String(), "status", s.String(), "error", err)
		return err
	}

	switch state {
	case notification.StateFailed:
		log.Warn("notification failed",
			"path", r.path.String(),
			"status", s.String(),
			"reason", r.tracker.Reason().String(),
		)
	default:
		log.Info("notification status",
			"path", r.path.String(),
			"status", s.String(),
			"state", state.String(),
		)
	}

	if r.notify != nil {
		r.notify.OnNotify(r, s, state)
	}
	return nil
}

// BindPut installs the PUT handler. Reported at setup: ErrMethodNotAllowed
// if PUT is not in the mask, ErrHandlerBound if one is already installed.
func (r *Resource) BindPut(h PutHandler) error {
	if !r.methods.Has(MethodPut) {
		return r.notAllowed(MethodPut)
	}
	if r.put != nil {
		return fmt.Errorf("%w: PUT on %s", ErrHandlerBound, r.path)
	}
	r.put = h
	return nil
}

// BindPost installs the POST handler.
func (r *Resource) BindPost(h PostHandler) error {
	if !r.methods.Has(MethodPost) {
		return r.notAllowed(MethodPost)
	}
	if r.post != nil {
		return fmt.Errorf("%w: POST on %s", ErrHandlerBound, r.path)
	}
	r.post = h
	return nil
}

// BindNotify installs the delivery-status handler. Only observable
// resources accept one.
func (r *Resource) BindNotify(h NotifyHandler) error {
	if !r.observable {
		return fmt.Errorf("%w: notify on non-observable %s", ErrMethodNotAllowed, r.path)
	}
	if r.notify != nil {
		return fmt.Errorf("%w: notify on %s", ErrHandlerBound, r.path)
	}
	r.notify = h
	return nil
}

func (r *Resource) notAllowed(m Method) error {
	if m == 0 {
		return fmt.Errorf("%w: %s is not observable", ErrMethodNotAllowed, r.path)
	}
	return fmt.Errorf("%w: %s on %s (allowed %s)", ErrMethodNotAllowed, m, r.path, r.methods)
}
