package resource

import "strings"

// Method is a bit mask of remote operations a resource accepts.
type Method uint8

const (
	MethodGet Method = 1 << iota
	MethodPut
	MethodPost
)

// Has reports whether every bit of o is set in m.
func (m Method) Has(o Method) bool {
	return o != 0 && m&o == o
}

// String renders the mask as "GET|PUT". An empty mask renders as "NONE".
func (m Method) String() string {
	var parts []string
	if m.Has(MethodGet) {
		parts = append(parts, "GET")
	}
	if m.Has(MethodPut) {
		parts = append(parts, "PUT")
	}
	if m.Has(MethodPost) {
		parts = append(parts, "POST")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Strings returns the individual method names, for wire encodings.
func (m Method) Strings() []string {
	if m == 0 {
		return nil
	}
	return strings.Split(m.String(), "|")
}
