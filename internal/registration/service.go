package registration

import (
	"context"

	"github.com/nerrad567/gray-logic-edge/internal/notification"
	"github.com/nerrad567/gray-logic-edge/internal/resource"
)

// Network is the device's uplink.
type Network interface {
	// Connect makes one connection attempt.
	Connect(ctx context.Context) error

	// Address reports the local address once connected.
	Address() string
}

// Storage holds provisioned credentials.
type Storage interface {
	// Init opens (and if needed recreates) the store.
	Init(ctx context.Context) error

	// Wipe irreversibly deletes all provisioned data.
	Wipe(ctx context.Context) error
}

// Descriptor is what the service advertises for a resource.
type Descriptor struct {
	Path       resource.Path
	Name       string
	Methods    resource.Method
	Observable bool
}

// Op is a remote operation on a resource.
type Op string

const (
	OpGet     Op = "get"
	OpPut     Op = "put"
	OpPost    Op = "post"
	OpObserve Op = "observe"
	OpCancel  Op = "cancel"
)

// Request is a remote operation delivered by the service.
type Request struct {
	Op      Op
	Path    resource.Path
	Payload []byte
}

// Code is a response status, using HTTP numbering.
type Code int

const (
	CodeContent          Code = 200
	CodeChanged          Code = 204
	CodeBadRequest       Code = 400
	CodeNotFound         Code = 404
	CodeMethodNotAllowed Code = 405
)

// Response answers a Request.
type Response struct {
	Code  Code
	Value []byte
}

// Callbacks receives asynchronous events from the service. The controller
// implements it by posting every call through the event bridge, so
// implementations may call these from any goroutine.
type Callbacks interface {
	OnRegistered(endpoint string)
	OnRegistrationError(err error)
	OnUnregistered()

	// OnNotificationStatus reports the delivery status of notification
	// attempt for path, as passed to NotifyValue.
	OnNotificationStatus(path resource.Path, attempt uint64, status notification.Status)

	// OnRequest handles a remote request. reply is called exactly once,
	// on the dispatcher, and must not block.
	OnRequest(req Request, reply func(Response))
}

// Service is the Registration Service: the remote session with the
// device-management server. All methods except Init must return without
// waiting on the network; outcomes arrive through Callbacks.
type Service interface {
	resource.Notifier

	Init(ctx context.Context, network Network, storage Storage, cb Callbacks) error
	CreateResource(d Descriptor) error
	RegisterAndConnect() error
	Close() error
}
