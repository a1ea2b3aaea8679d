// Package scope maps the active view partition selection onto the
// authoritative lists that back it and onto the remote API's list
// parameter.
package scope

import (
	"errors"
	"fmt"
	"strings"
)

// Scope identifies which partition of records is in view.
type Scope string

const (
	// Mine shows only records owned by the acting dealer.
	Mine Scope = "mine"
	// Public shows records other dealers have made publicly visible.
	Public Scope = "public"
	// All shows the union of Mine and Public.
	All Scope = "all"
)

// DefaultScope is used when no preference has been persisted yet.
const DefaultScope = Mine

// ErrUnknownScope indicates a scope value outside the known set.
var ErrUnknownScope = errors.New("scope: unknown scope")

// Parse validates a raw scope string, typically read from the
// preference store.
func Parse(raw string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case Mine:
		return Mine, nil
	case Public:
		return Public, nil
	case All:
		return All, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
}

// String returns the wire/preference form of the scope.
func (s Scope) String() string {
	return string(s)
}

// Requirement describes what a scope needs: which authoritative lists
// back it and which list parameter the remote API expects.
type Requirement struct {
	NeedMine   bool
	NeedPublic bool
	ListParam  string
}

// Resolve returns the requirement for the scope. Unknown scopes fall
// back to the Mine requirement so a corrupted stored preference can
// never widen the view.
func Resolve(s Scope) Requirement {
	switch s {
	case Public:
		return Requirement{NeedPublic: true, ListParam: "public"}
	case All:
		return Requirement{NeedMine: true, NeedPublic: true, ListParam: "both"}
	default:
		return Requirement{NeedMine: true, ListParam: "mine"}
	}
}
