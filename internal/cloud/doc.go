// Package cloud implements the device-management session over MQTT.
//
// Service satisfies registration.Service. It advertises the resource
// directory on {prefix}/register/{client_id}, waits for the server's reply on
// {prefix}/{client_id}/registration, serves requests arriving on
// {prefix}/{endpoint}/req/{op}/{path} and publishes change notifications for
// observed resources on {prefix}/{endpoint}/notify/{path}.
//
// Network is the reachability probe the registration controller retries
// before the session is opened.
package cloud
