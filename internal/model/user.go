package model

// UserID is the constant key of the single identity record.
const UserID = 1

// Role is the operational role a user advertises to the mesh.
//
// The well-known roles below are what the onboarding flow offers, but any
// string is stored and returned verbatim so that roles issued by other
// nodes survive a round trip.
type Role string

const (
	RoleCivilian    Role = "Civilian"
	RoleScout       Role = "Scout"
	RoleMedic       Role = "Medic"
	RoleCoordinator Role = "Coordinator"
)

// RoleInfo describes a well-known role.
type RoleInfo struct {
	Role        Role   `json:"role"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Roles lists the well-known roles in the order they are offered.
var Roles = []RoleInfo{
	{RoleCivilian, "Civilian", "Basic node. Best for receiving alerts."},
	{RoleScout, "Scout", "Mobile node. Focused on active field reporting."},
	{RoleMedic, "First Responder", "Medical support. Notified of injury reports."},
	{RoleCoordinator, "Coordinator", "Strategic node. Managing regional data."},
}

// Known reports whether r is one of the well-known roles.
func (r Role) Known() bool {
	_, ok := r.Info()
	return ok
}

// Info returns the description of a well-known role.
func (r Role) Info() (RoleInfo, bool) {
	for _, info := range Roles {
		if info.Role == r {
			return info, true
		}
	}
	return RoleInfo{}, false
}

// User is the local identity. At most one exists per device.
//
// NodeName is assigned on the first save and never changes afterwards.
// LastUpdatedTimestamp is stamped on every save and drives the edit lock.
type User struct {
	ID                   int    `json:"id"`
	DisplayName          string `json:"display_name"`
	Role                 Role   `json:"role"`
	NodeName             string `json:"node_name"`
	IsAnonymous          bool   `json:"is_anonymous"`
	LastUpdatedTimestamp int64  `json:"last_updated_timestamp"` // ms since epoch
}
