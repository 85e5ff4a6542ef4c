package models

// Group is a set of users sharing a transaction ledger.
// A group has at least one member right after creation (its creator).
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members are the users currently in the group. Order is not significant.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the group or its membership.
	UpdatedAt int64
}

// Member is the public view of a user inside a group.
type Member struct {
	ID    string
	Email string
}

// MemberIDs returns the IDs of the group's members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}
