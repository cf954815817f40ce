package nav

import (
	"fmt"
	"strings"
)

// LinkPermissions is the set of vertical movement styles a sibling link
// allows. LinkNone is a member like the others so that a union of links
// still records that a flat step exists.
type LinkPermissions uint8

const (
	LinkNone LinkPermissions = 1 << iota
	LinkJumpUp
	LinkJumpDown

	LinkAll = LinkNone | LinkJumpUp | LinkJumpDown
)

var permissionNames = []struct {
	flag LinkPermissions
	name string
}{
	{LinkNone, "none"},
	{LinkJumpUp, "jumpup"},
	{LinkJumpDown, "jumpdown"},
}

// Has reports whether every flag of other is in p.
func (p LinkPermissions) Has(other LinkPermissions) bool {
	return p&other == other
}

// HasAny reports whether p and other share a flag.
func (p LinkPermissions) HasAny(other LinkPermissions) bool {
	return p&other != 0
}

func (p LinkPermissions) Union(other LinkPermissions) LinkPermissions {
	return p | other
}

// AllowedBy reports whether a link carrying p may be used by a query that
// allows the given jump styles. Flat links are always usable.
func (p LinkPermissions) AllowedBy(allowed LinkPermissions) bool {
	return p.Has(LinkNone) || p.HasAny(allowed)
}

func (p LinkPermissions) String() string {
	if p == 0 {
		return "{}"
	}
	names := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if p.Has(pn.flag) {
			names = append(names, pn.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ParsePermissions parses permission names such as "none", "jumpup" and
// "jumpdown" (case-insensitive). "all" selects every flag.
func ParsePermissions(names ...string) (LinkPermissions, error) {
	var p LinkPermissions
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name == "all" {
			p |= LinkAll
			continue
		}

		found := false
		for _, pn := range permissionNames {
			if pn.name == name {
				p |= pn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown link permission %q", raw)
		}
	}
	return p, nil
}
