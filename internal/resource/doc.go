// Package resource models the values a device exposes to its management
// server.
//
// A Resource has a three-segment Path, a Method mask (GET, PUT, POST) and an
// observable flag. The mask is declared here and enforced at the remote
// entry points Get, Put and Invoke; SetValue is the trusted local path.
//
//	dir := resource.NewDirectory()
//	btn, err := dir.Create(resource.MustParsePath("3200/0/5501"), "button",
//	    resource.MethodGet, true)
//
//	blink, _ := dir.Create(resource.MustParsePath("3201/0/5850"), "blink",
//	    resource.MethodPost, false)
//	blink.BindPost(resource.PostFunc(func(r *resource.Resource, payload []byte) {
//	    ...
//	}))
//
// Handlers are bound at setup. Binding a handler for a method outside the
// mask is a configuration error (ErrMethodNotAllowed) rather than something
// discovered at runtime.
package resource
