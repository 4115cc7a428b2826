package models

// Room represents a shared living space whose members split costs.
type Room struct {
	// ID is the unique identifier for the room (UUID format).
	ID string `json:"id"`

	// Name is the display name of the room (e.g., "Flat 4B").
	Name string `json:"name"`

	// MaxMembers caps how many people can join.
	// Invariant: len(members) <= MaxMembers at all times.
	MaxMembers int `json:"max_members"`

	// CreatedAt is the Unix timestamp when the room was created.
	CreatedAt int64 `json:"created_at"`

	// Members holds the room's memberships when loaded with the room.
	Members []Membership `json:"members,omitempty"`
}

// Membership links a user to a room. Exactly one exists per (user, room).
type Membership struct {
	UserID   string `json:"user_id"`
	RoomID   string `json:"room_id"`
	Role     Role   `json:"role"`
	JoinedAt int64  `json:"joined_at"`

	// DisplayName is denormalized from the users table for room views.
	DisplayName string `json:"display_name,omitempty"`
}

// Role is a member's privilege level within a room.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// precedence orders roles for permission checks: admin > moderator > member.
var precedence = map[Role]int{
	RoleAdmin:     3,
	RoleModerator: 2,
	RoleMember:    1,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := precedence[r]
	return ok
}

// AtLeast reports whether r has at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return precedence[r] >= precedence[other]
}

// Above reports whether r strictly outranks other. Used for member-on-member
// actions: a moderator may kick members but not fellow moderators.
func (r Role) Above(other Role) bool {
	return precedence[r] > precedence[other]
}

// Action is a permission-gated operation within a room.
type Action string

const (
	ActionKickMember    Action = "kick_member"
	ActionDeleteRoom    Action = "delete_room"
	ActionChangeRole    Action = "change_role"
	ActionDeleteInvoice Action = "delete_invoice"
)

// requiredRole maps each gated action to the minimum role that may perform it.
var requiredRole = map[Action]Role{
	ActionKickMember:    RoleModerator,
	ActionDeleteRoom:    RoleAdmin,
	ActionChangeRole:    RoleAdmin,
	ActionDeleteInvoice: RoleModerator,
}

// HasPermission reports whether a member with the given role may perform action.
func HasPermission(action Action, role Role) bool {
	min, ok := requiredRole[action]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}
