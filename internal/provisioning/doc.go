// Package provisioning stores the credentials a device uses to reach its
// management server.
//
// The store is a single-row SQLite table on the device's storage card. Init
// opens it (recreating the file once if it is unreadable), migrates the
// schema and seeds developer credentials from configuration on first boot.
// Wipe is the storage half of a factory reset.
//
// It satisfies registration.Storage.
package provisioning
