package group

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Mode string

const (
	ModeParticipant Mode = "participant"
	ModeSpectator   Mode = "spectator"
)

type Group struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	InviteCode string    `json:"invite_code" db:"invite_code"`
	CreatedBy  uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Membership struct {
	ID       uuid.UUID `json:"id" db:"id"`
	GroupID  uuid.UUID `json:"group_id" db:"group_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Role     Role      `json:"role" db:"role"`
	Mode     Mode      `json:"mode" db:"mode"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// Member is a membership joined with the user's display fields,
// as returned by the group detail endpoint.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	ImageURL string    `json:"image_url,omitempty"`
	Role     Role      `json:"role"`
	Mode     Mode      `json:"mode"`
	JoinedAt time.Time `json:"joined_at"`
}

type GroupDetail struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

type UpdateMemberModeRequest struct {
	Mode Mode `json:"mode"`
}
