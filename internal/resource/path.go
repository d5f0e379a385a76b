package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a resource as object/instance/resource, e.g. 3200/0/5501.
type Path struct {
	Object   uint16
	Instance uint16
	Resource uint16
}

// ParsePath parses "object/instance/resource". Leading or trailing slashes
// are tolerated.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}

	var ids [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		ids[i] = uint16(n)
	}

	return Path{Object: ids[0], Instance: ids[1], Resource: ids[2]}, nil
}

// MustParsePath is ParsePath for constant paths. It panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path as "object/instance/resource".
func (p Path) String() string {
	return fmt.Sprintf("%d/%d/%d", p.Object, p.Instance, p.Resource)
}
