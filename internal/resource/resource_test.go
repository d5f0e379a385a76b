package resource

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-edge/internal/notification"
)

// recordingNotifier captures NotifyValue calls.
type recordingNotifier struct {
	paths    []Path
	values   [][]byte
	attempts []uint64
}

func (n *recordingNotifier) NotifyValue(path Path, value []byte, attempt uint64) {
	n.paths = append(n.paths, path)
	n.values = append(n.values, value)
	n.attempts = append(n.attempts, attempt)
}

var (
	buttonPath  = MustParsePath("3200/0/5501")
	patternPath = MustParsePath("3201/0/5853")
	blinkPath   = MustParsePath("3201/0/5850")
)

func mustCreate(t *testing.T, d *Directory, p Path, m Method, observable bool) *Resource {
	t.Helper()
	r, err := d.Create(p, "test", m, observable)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", p, err)
	}
	return r
}

// =============================================================================
// Path and Method Tests
// =============================================================================

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{"3200/0/5501", Path{3200, 0, 5501}, false},
		{"/5000/0/2/", Path{5000, 0, 2}, false},
		{"3200/0", Path{}, true},
		{"3200/0/5501/1", Path{}, true},
		{"a/0/1", Path{}, true},
		{"70000/0/1", Path{}, true},
		{"", Path{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePath(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if back, _ := ParsePath(got.String()); back != got {
				t.Errorf("String() = %q does not round-trip", got.String())
			}
		})
	}
}

func TestMethod_String(t *testing.T) {
	tests := []struct {
		m    Method
		want string
	}{
		{0, "NONE"},
		{MethodGet, "GET"},
		{MethodGet | MethodPut, "GET|PUT"},
		{MethodPost, "POST"},
		{MethodGet | MethodPut | MethodPost, "GET|PUT|POST"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("Method(%d).String() = %q, want %q", tt.m, got, tt.want)
		}
	}

	if (MethodGet | MethodPut).Has(MethodPost) {
		t.Error("GET|PUT should not have POST")
	}
	if Method(0).Has(0) {
		t.Error("Has(0) should be false")
	}
}

// =============================================================================
// Directory Tests
// =============================================================================

func TestDirectory_DuplicatePath(t *testing.T) {
	d := NewDirectory()
	first := mustCreate(t, d, buttonPath, MethodGet, true)
	first.SetString("7")

	_, err := d.Create(buttonPath, "other", MethodPost, false)
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("second Create() error = %v, want ErrDuplicatePath", err)
	}

	got, err := d.Lookup(buttonPath)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got != first || got.String() != "7" || got.Methods() != MethodGet || !got.Observable() {
		t.Error("first resource was modified by duplicate Create")
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestDirectory_LookupAndOrder(t *testing.T) {
	d := NewDirectory()
	mustCreate(t, d, patternPath, MethodGet|MethodPut, false)
	mustCreate(t, d, blinkPath, MethodPost, false)

	if _, err := d.Lookup(buttonPath); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrNotFound", err)
	}

	all := d.All()
	if len(all) != 2 || all[0].Path() != patternPath || all[1].Path() != blinkPath {
		t.Errorf("All() order wrong: %v", all)
	}
}

func TestDirectory_Remove(t *testing.T) {
	d := NewDirectory()
	mustCreate(t, d, patternPath, MethodGet|MethodPut, false)
	mustCreate(t, d, blinkPath, MethodPost, false)

	if !d.Remove(patternPath) {
		t.Fatal("Remove() = false for existing path")
	}
	if d.Remove(patternPath) {
		t.Error("second Remove() = true")
	}
	if _, err := d.Lookup(patternPath); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(removed) error = %v, want ErrNotFound", err)
	}
	if all := d.All(); len(all) != 1 || all[0].Path() != blinkPath {
		t.Errorf("All() after Remove = %v", all)
	}

	// The path is free again.
	mustCreate(t, d, patternPath, MethodGet, false)
}

// =============================================================================
// Value Tests
// =============================================================================

func TestResource_SetThenGet(t *testing.T) {
	d := NewDirectory()
	r := mustCreate(t, d, patternPath, MethodGet|MethodPut, false)

	if len(r.Value()) != 0 {
		t.Errorf("initial value = %q, want empty", r.Value())
	}

	in := []byte("500:200:500")
	r.SetValue(in)
	in[0] = 'X' // caller mutation must not leak in

	got, err := r.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "500:200:500" {
		t.Errorf("Get() = %q, want %q", got, "500:200:500")
	}

	got[0] = 'Y' // returned copy must not leak back
	if r.String() != "500:200:500" {
		t.Errorf("value changed through returned slice: %q", r.String())
	}
}

func TestResource_Int(t *testing.T) {
	d := NewDirectory()
	r := mustCreate(t, d, buttonPath, MethodGet, false)

	r.SetInt(42)
	if n, err := r.Int(); err != nil || n != 42 {
		t.Errorf("Int() = %d, %v; want 42, nil", n, err)
	}

	r.SetString("abc")
	if _, err := r.Int(); !errors.Is(err, ErrNotInteger) {
		t.Errorf("Int() error = %v, want ErrNotInteger", err)
	}
}

func TestResource_ObservableNotifies(t *testing.T) {
	d := NewDirectory()
	n := &recordingNotifier{}
	d.SetNotifier(n)

	btn := mustCreate(t, d, buttonPath, MethodGet, true)
	plain := mustCreate(t, d, patternPath, MethodGet|MethodPut, false)

	if btn.Tracker() == nil {
		t.Fatal("observable resource has no tracker")
	}
	if plain.Tracker() != nil {
		t.Error("non-observable resource has a tracker")
	}

	btn.SetInt(1)
	plain.SetString("100")
	btn.SetInt(2)

	if len(n.paths) != 2 || n.paths[0] != buttonPath || string(n.values[0]) != "1" {
		t.Errorf("notifications = %v %q, want two for %s", n.paths, n.values, buttonPath)
	}
	if len(n.attempts) != 2 || n.attempts[0] != 1 || n.attempts[1] != 2 {
		t.Errorf("attempts = %v, want [1 2]", n.attempts)
	}
	if btn.Tracker().State() != notification.StateQueued {
		t.Errorf("tracker state = %s, want QUEUED", btn.Tracker().State())
	}
}

func TestResource_ObservableWithoutNotifier(t *testing.T) {
	d := NewDirectory()
	btn := mustCreate(t, d, buttonPath, MethodGet, true)

	for i := int64(1); i <= 3; i++ {
		btn.SetInt(i)
		if n, _ := btn.Int(); n != i {
			t.Fatalf("value = %d, want %d", n, i)
		}
	}

	tr := btn.Tracker()
	if tr.State() != notification.StateQueued || tr.Attempts() != 3 || tr.Delivered() != 0 {
		t.Errorf("tracker = %s attempts=%d delivered=%d", tr.State(), tr.Attempts(), tr.Delivered())
	}
}

// =============================================================================
// Method Gating Tests
// =============================================================================

func TestResource_RejectedOperationsHaveNoEffect(t *testing.T) {
	d := NewDirectory()
	n := &recordingNotifier{}
	d.SetNotifier(n)

	// Observable, GET only.
	btn := mustCreate(t, d, buttonPath, MethodGet, true)
	btn.SetString("5")
	n.paths = nil

	if err := btn.Put([]byte("9")); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("Put() error = %v, want ErrMethodNotAllowed", err)
	}
	if err := btn.Invoke(nil); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("Invoke() error = %v, want ErrMethodNotAllowed", err)
	}
	if btn.String() != "5" {
		t.Errorf("value = %q, want unchanged 5", btn.String())
	}
	if len(n.paths) != 0 {
		t.Errorf("rejected op produced notification: %v", n.paths)
	}
	if btn.Tracker().Attempts() != 1 {
		t.Errorf("tracker attempts = %d, want 1", btn.Tracker().Attempts())
	}

	blink := mustCreate(t, d, blinkPath, MethodPost, false)
	if _, err := blink.Get(); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("Get() on POST-only error = %v, want ErrMethodNotAllowed", err)
	}
}

func TestResource_PutCallsHandler(t *testing.T) {
	d := NewDirectory()
	r := mustCreate(t, d, patternPath, MethodGet|MethodPut, false)

	var got []byte
	calls := 0
	if err := r.BindPut(PutFunc(func(res *Resource, v []byte) {
		calls++
		got = v
		if res.String() != string(v) {
			t.Errorf("handler ran before value stored")
		}
	})); err != nil {
		t.Fatalf("BindPut() error = %v", err)
	}

	if err := r.Put([]byte("100:100")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if calls != 1 || !bytes.Equal(got, []byte("100:100")) {
		t.Errorf("handler calls=%d value=%q", calls, got)
	}
}

func TestResource_Invoke(t *testing.T) {
	d := NewDirectory()
	r := mustCreate(t, d, blinkPath, MethodPost, false)

	// No handler: succeeds as a no-op.
	if err := r.Invoke([]byte("x")); err != nil {
		t.Fatalf("Invoke() without handler error = %v", err)
	}

	var payload []byte
	r.BindPost(PostFunc(func(_ *Resource, p []byte) { payload = p })) //nolint:errcheck
	if err := r.Invoke([]byte("go")); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if string(payload) != "go" {
		t.Errorf("payload = %q, want go", payload)
	}
}

func TestResource_BindErrors(t *testing.T) {
	d := NewDirectory()
	get := mustCreate(t, d, buttonPath, MethodGet, false)
	post := mustCreate(t, d, blinkPath, MethodPost, false)

	noopPut := PutFunc(func(*Resource, []byte) {})
	noopPost := PostFunc(func(*Resource, []byte) {})
	noopNotify := NotifyFunc(func(*Resource, notification.Status, notification.State) {})

	tests := []struct {
		name string
		bind func() error
		want error
	}{
		{"put without PUT", func() error { return get.BindPut(noopPut) }, ErrMethodNotAllowed},
		{"post without POST", func() error { return get.BindPost(noopPost) }, ErrMethodNotAllowed},
		{"notify on non-observable", func() error { return get.BindNotify(noopNotify) }, ErrMethodNotAllowed},
		{"first post", func() error { return post.BindPost(noopPost) }, nil},
		{"second post", func() error { return post.BindPost(noopPost) }, ErrHandlerBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bind()
			if tt.want == nil {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// =============================================================================
// Status Tests
// =============================================================================

func TestResource_HandleStatus(t *testing.T) {
	d := NewDirectory()
	btn := mustCreate(t, d, buttonPath, MethodGet, true)

	var states []notification.State
	btn.BindNotify(NotifyFunc(func(_ *Resource, _ notification.Status, s notification.State) { //nolint:errcheck
		states = append(states, s)
	}))

	btn.SetInt(1)
	for _, s := range []notification.Status{notification.StatusSent, notification.StatusDelivered} {
		if err := btn.HandleStatus(s); err != nil {
			t.Fatalf("HandleStatus(%s) error = %v", s, err)
		}
	}

	if len(states) != 2 || states[1] != notification.StateDelivered {
		t.Errorf("handler states = %v", states)
	}

	// Out-of-order status is rejected and not forwarded.
	if err := btn.HandleStatus(notification.StatusDelivered); !errors.Is(err, notification.ErrInvalidTransition) {
		t.Errorf("HandleStatus() error = %v, want ErrInvalidTransition", err)
	}
	if len(states) != 2 {
		t.Errorf("handler called for rejected status")
	}

	plain := mustCreate(t, d, patternPath, MethodGet, false)
	if err := plain.HandleStatus(notification.StatusSent); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("HandleStatus() on non-observable error = %v", err)
	}
	if err := plain.HandleDelivery(1, notification.StatusSent); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("HandleDelivery() on non-observable error = %v", err)
	}
}

func TestResource_HandleDelivery_Superseded(t *testing.T) {
	d := NewDirectory()
	btn := mustCreate(t, d, buttonPath, MethodGet, true)

	var statuses []notification.Status
	btn.BindNotify(NotifyFunc(func(_ *Resource, s notification.Status, _ notification.State) { //nolint:errcheck
		statuses = append(statuses, s)
	}))

	btn.SetInt(1)
	btn.HandleDelivery(1, notification.StatusSent) //nolint:errcheck // valid from QUEUED
	btn.SetInt(2)

	if err := btn.HandleDelivery(1, notification.StatusSendFailed); !errors.Is(err, notification.ErrStaleStatus) {
		t.Fatalf("HandleDelivery(stale) error = %v, want ErrStaleStatus", err)
	}
	for _, s := range []notification.Status{notification.StatusSent, notification.StatusDelivered} {
		if err := btn.HandleDelivery(2, s); err != nil {
			t.Fatalf("HandleDelivery(2, %s) error = %v", s, err)
		}
	}

	if got := btn.Tracker().State(); got != notification.StateDelivered {
		t.Errorf("state = %s, want DELIVERED", got)
	}
	want := []notification.Status{notification.StatusSent, notification.StatusSent, notification.StatusDelivered}
	if len(statuses) != len(want) {
		t.Fatalf("handler saw %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("handler status[%d] = %s, want %s", i, statuses[i], want[i])
		}
	}
}
