package dispatch

import "fmt"

// Policy decides who may read visit statistics and diagnostics.
type Policy interface {
	Allowed(visitorID string) bool
}

// Public lets everyone through.
type Public struct{}

func (Public) Allowed(string) bool { return true }

type AllowList map[string]struct{}

func NewAllowList(ids ...string) AllowList {
	l := make(AllowList, len(ids))
	for _, id := range ids {
		l[id] = struct{}{}
	}
	return l
}

func (l AllowList) Allowed(visitorID string) bool {
	_, ok := l[visitorID]
	return ok
}

// NewPolicy builds a policy from its config name: "public" or "allowlist".
func NewPolicy(mode string, ids []string) (Policy, error) {
	switch mode {
	case "", "public":
		return Public{}, nil
	case "allowlist":
		if len(ids) == 0 {
			return nil, fmt.Errorf("allowlist policy needs at least one id")
		}
		return NewAllowList(ids...), nil
	default:
		return nil, fmt.Errorf("unknown access policy %q", mode)
	}
}
