package cloud

import (
	"github.com/nerrad567/gray-logic-edge/internal/registration"
)

// Registration reply statuses.
const (
	replyOK    = "ok"
	replyError = "error"
)

// registerMessage is published on {prefix}/register/{client_id}.
type registerMessage struct {
	ID        string          `json:"id"`
	Endpoint  string          `json:"endpoint"`
	ClientID  string          `json:"client_id"`
	Resources []resourceEntry `json:"resources"`
}

type resourceEntry struct {
	Path       string   `json:"path"`
	Name       string   `json:"name"`
	Methods    []string `json:"methods"`
	Observable bool     `json:"observable"`
}

// registrationReply arrives on {prefix}/{client_id}/registration.
type registrationReply struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Endpoint string `json:"endpoint,omitempty"`
	Code     int    `json:"code,omitempty"`
}

// notifyMessage is published on {prefix}/{endpoint}/notify/{path}.
type notifyMessage struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Value string `json:"value"`
	Seq   uint64 `json:"seq"`
}

// responseMessage is published on {prefix}/{endpoint}/resp/{op}/{path}.
type responseMessage struct {
	Code  registration.Code `json:"code"`
	Value string            `json:"value,omitempty"`
}

// deregisterMessage is published on {prefix}/{endpoint}/deregister.
type deregisterMessage struct {
	Endpoint string `json:"endpoint"`
	Reason   string `json:"reason"`
}

func entryFor(d registration.Descriptor) resourceEntry {
	return resourceEntry{
		Path:       d.Path.String(),
		Name:       d.Name,
		Methods:    d.Methods.Strings(),
		Observable: d.Observable,
	}
}
