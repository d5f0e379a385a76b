// Package registration owns the device lifecycle.
//
// The Controller drives setup (storage, network, client), advertises the
// resources created during setup, starts registration with the remote
// device-management server and handles graceful unregistration and factory
// reset. The remote session itself is a Service implementation (see
// internal/cloud); the controller only reacts to its callbacks, and every
// callback is posted through the event bridge before it touches state.
//
// Typical use:
//
//	ctrl := registration.New(registration.Options{Bridge: b, Service: svc, ...})
//	if err := ctrl.Start(ctx); err != nil {
//	    return err // exit non-zero
//	}
//	ctrl.CreateResource(path, "button", resource.MethodGet, true)
//	ctrl.RegisterAndConnect()
//	go b.Run(ctx)
//	<-ctrl.Done()
package registration
