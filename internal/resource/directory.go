package resource

import (
	"fmt"

	"github.com/nerrad567/gray-logic-edge/internal/notification"
)

// Directory holds every resource of the device, keyed by path.
//
// Thread Safety:
//   - Not safe for concurrent use. The registration controller owns the
//     directory and only touches it from the event dispatcher.
type Directory struct {
	resources map[Path]*Resource
	order     []*Resource
	notifier  Notifier
	logger    Logger
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		resources: make(map[Path]*Resource),
		logger:    noopLogger{},
	}
}

// SetNotifier sets the sink for change notifications of observable
// resources. Nil disables notification (trackers still move).
func (d *Directory) SetNotifier(n Notifier) {
	d.notifier = n
}

// SetLogger sets the logger for status reporting.
func (d *Directory) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	d.logger = l
}

// Create adds a resource with an empty value.
//
// Returns ErrDuplicatePath if the path is taken; the existing resource is
// left untouched.
func (d *Directory) Create(path Path, name string, methods Method, observable bool) (*Resource, error) {
	if _, exists := d.resources[path]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}

	r := &Resource{
		path:       path,
		name:       name,
		methods:    methods,
		observable: observable,
		dir:        d,
	}
	if observable {
		r.tracker = notification.NewTracker()
	}

	d.resources[path] = r
	d.order = append(d.order, r)
	return r, nil
}

// Remove deletes the resource at path and reports whether it existed.
// Used to undo a Create the rest of the system refused.
func (d *Directory) Remove(path Path) bool {
	r, ok := d.resources[path]
	if !ok {
		return false
	}
	delete(d.resources, path)
	for i, o := range d.order {
		if o == r {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the resource at path.
func (d *Directory) Lookup(path Path) (*Resource, error) {
	r, ok := d.resources[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return r, nil
}

// All returns resources in creation order.
func (d *Directory) All() []*Resource {
	out := make([]*Resource, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of resources.
func (d *Directory) Len() int {
	return len(d.order)
}
