package debate

import (
	"fmt"
	"strings"
)

// Role is the part a participant plays in a debate.
type Role string

const (
	RoleFacilitator  Role = "facilitator"
	RoleCritic       Role = "critic"
	RoleReasoner     Role = "reasoner"
	RoleStateTracker Role = "stateTracker"

	// RoleSystem and RoleError only appear on result entries.
	RoleSystem Role = "system"
	RoleError  Role = "error"
)

// Roles lists the roles a card may carry, facilitator first.
func Roles() []Role {
	return []Role{RoleFacilitator, RoleCritic, RoleReasoner, RoleStateTracker}
}

// Valid reports whether r can be assigned to a participant.
func (r Role) Valid() bool {
	switch r {
	case RoleFacilitator, RoleCritic, RoleReasoner, RoleStateTracker:
		return true
	default:
		return false
	}
}

// Label is the spoken form used in instructions ("state tracker").
func (r Role) Label() string {
	if r == RoleStateTracker {
		return "state tracker"
	}
	return string(r)
}

// Colour returns the display colour of entries produced by the role.
func (r Role) Colour() string {
	switch r {
	case RoleFacilitator:
		return "#DC143C"
	case RoleCritic:
		return "#00ff00"
	case RoleReasoner:
		return "#0000ff"
	case RoleStateTracker:
		return "#ffff00"
	case RoleError:
		return "#FF0000"
	default:
		return "#FFFFFF"
	}
}

// Participant is one card of the deck: the backing model label plus the
// persona the agent is asked to play.
type Participant struct {
	Model       string `json:"model" yaml:"model"`
	Expertise   string `json:"expertise" yaml:"expertise"`
	Personality string `json:"personality" yaml:"personality"`
	Role        Role   `json:"role" yaml:"role"`
}

// Validate checks that every field is present and the role is known.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("missing field: model")
	}
	if strings.TrimSpace(p.Expertise) == "" {
		return fmt.Errorf("missing field: expertise")
	}
	if strings.TrimSpace(p.Personality) == "" {
		return fmt.Errorf("missing field: personality")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	return nil
}

// String renders the participant for logs.
func (p Participant) String() string {
	return fmt.Sprintf("%s/%s", p.Role, p.Model)
}
