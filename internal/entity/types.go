package entity

// Type classifies an entity.
type Type string

// Entity types.
const (
	TypeVehicle   Type = "vehicle"
	TypeComponent Type = "component"
)

// Entity is one addressable node of the diagnostic tree.
type Entity struct {
	ID          string   `json:"id"`
	Type        Type     `json:"type"`
	DisplayName string   `json:"name"`
	Parent      string   `json:"parent,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// IsRoot reports whether the entity has no parent.
func (e Entity) IsRoot() bool {
	return e.Parent == ""
}

// clone returns a copy that does not share the Children slice.
func (e Entity) clone() Entity {
	if e.Children != nil {
		e.Children = append([]string(nil), e.Children...)
	}
	return e
}
