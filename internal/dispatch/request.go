package dispatch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownAction = errors.New("dispatch: unknown action")
	ErrMalformed     = errors.New("dispatch: malformed action")
)

type Kind int

const (
	SessionStart Kind = iota + 1
	Reset
	SelectService
	Back
	StatsRequest
	DebugRequest
)

func (k Kind) String() string {
	switch k {
	case SessionStart:
		return "session_start"
	case Reset:
		return "reset"
	case SelectService:
		return "select_service"
	case Back:
		return "back"
	case StatsRequest:
		return "stats"
	case DebugRequest:
		return "debug"
	default:
		return "unknown"
	}
}

// Request is an inbound user action, decoded once at the platform edge.
type Request struct {
	Kind      Kind
	VisitorID string
	Selector  int // SelectService only
}

const (
	servicePrefix = "service_"
	backData      = "back_to_services"
)

// DecodeCallback parses inline button data.
func DecodeCallback(data string) (Request, error) {
	if data == backData {
		return Request{Kind: Back}, nil
	}
	raw, ok := strings.CutPrefix(data, servicePrefix)
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return Request{}, fmt.Errorf("%w: %q", ErrMalformed, data)
	}
	return Request{Kind: SelectService, Selector: n}, nil
}

// EncodeCallback is the inverse of DecodeCallback for button kinds.
func EncodeCallback(r Request) (string, error) {
	switch r.Kind {
	case SelectService:
		return servicePrefix + strconv.Itoa(r.Selector), nil
	case Back:
		return backData, nil
	default:
		return "", fmt.Errorf("%w: %s has no button form", ErrUnknownAction, r.Kind)
	}
}
