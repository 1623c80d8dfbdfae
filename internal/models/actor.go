package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Actor identifies who performed a state change: a human user or the system.
// The zero value is System. It is stored as a nullable uuid column.
type Actor struct {
	id    uuid.UUID
	human bool
}

// System is the actor recorded for automatic resolutions.
var System = Actor{}

// Human returns the actor for a user id.
func Human(id uuid.UUID) Actor {
	return Actor{id: id, human: true}
}

func (a Actor) IsSystem() bool { return !a.human }

// UserID returns the user id and true for human actors.
func (a Actor) UserID() (uuid.UUID, bool) {
	return a.id, a.human
}

func (a Actor) String() string {
	if !a.human {
		return "system"
	}
	return a.id.String()
}

func (a Actor) Value() (driver.Value, error) {
	if !a.human {
		return nil, nil
	}
	return a.id.String(), nil
}

func (a *Actor) Scan(src any) error {
	if src == nil {
		*a = System
		return nil
	}
	var id uuid.UUID
	if err := id.Scan(src); err != nil {
		return fmt.Errorf("scan actor: %w", err)
	}
	*a = Human(id)
	return nil
}

func (a Actor) MarshalJSON() ([]byte, error) {
	if !a.human {
		return []byte("null"), nil
	}
	return json.Marshal(a.id)
}

func (a *Actor) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = System
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	*a = Human(id)
	return nil
}
