package models

import "time"

// Role identifies which partner slot a session occupies.
type Role string

const (
	RolePartner1 Role = "partner1"
	RolePartner2 Role = "partner2"
)

// Partner holds the profile fields of one member of a couple.
type Partner struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "boy" | "girl"
}

// Couple is the shared identity binding two partner profiles. Partner2 is nil
// until the join path fills it; its fields are all-or-nothing.
type Couple struct {
	ID        string    `json:"id"`
	Partner1  Partner   `json:"partner1"`
	Partner2  *Partner  `json:"partner2,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerNicknameFor returns the other partner's nickname for the given role,
// or "" when the couple is not yet joined.
func (c *Couple) PartnerNicknameFor(role Role) string {
	if role == RolePartner1 {
		if c.Partner2 == nil {
			return ""
		}
		return c.Partner2.Nickname
	}
	return c.Partner1.Nickname
}

// Session is the device-local identity. It has no server-side counterpart and
// lives in the identity store until an explicit logout.
type Session struct {
	CoupleID        string `json:"couple_id"`
	Username        string `json:"username"`
	Nickname        string `json:"nickname"`
	Role            Role   `json:"role"`
	PartnerNickname string `json:"partner_nickname,omitempty"`
}
