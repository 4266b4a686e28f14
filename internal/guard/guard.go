// Package guard decides whether a protected view renders or redirects.
package guard

import (
	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/navigation"
)

type Outcome int

const (
	// Loading: the session is still being resolved; show a neutral view.
	Loading Outcome = iota + 1
	RedirectLogin
	RedirectUnauthorized
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is the guard's answer. Location is set for redirects only.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide is a pure function of its inputs. An empty required set admits any
// authenticated identity.
func Decide(id *identity.Identity, loading bool, required ...identity.Role) Decision {
	switch {
	case loading:
		return Decision{Outcome: Loading}
	case id == nil:
		return Decision{Outcome: RedirectLogin, Location: navigation.LoginPath}
	case len(required) > 0 && !id.HasRole(required...):
		return Decision{Outcome: RedirectUnauthorized, Location: navigation.UnauthorizedPath}
	default:
		return Decision{Outcome: Render}
	}
}
