// Package session holds the ephemeral state owned by a single websocket
// connection: the display name the client picked and the groups it joined.
//
// A Session is only ever touched by the goroutine reading its connection, so
// it carries no locking.
package session

import (
	"sort"

	"group-chat-service/internal/models"
)

// Session is the per-connection identity and membership state.
type Session struct {
	connID       string
	displayName  string
	hasName      bool
	joinedGroups map[string]struct{}
}

// New creates an empty session for the connection connID.
func New(connID string) *Session {
	return &Session{connID: connID, joinedGroups: make(map[string]struct{})}
}

// ConnID returns the id of the owning connection.
func (s *Session) ConnID() string {
	return s.connID
}

// SetDisplayName stores name unconditionally and returns it.
func (s *Session) SetDisplayName(name string) string {
	s.displayName = name
	s.hasName = true
	return name
}

// DisplayName returns the stored name and whether one was set.
func (s *Session) DisplayName() (string, bool) {
	return s.displayName, s.hasName
}

// RequireDisplayName returns the stored name or models.ErrIdentityNotSet.
func (s *Session) RequireDisplayName() (string, error) {
	if !s.hasName {
		return "", models.ErrIdentityNotSet
	}
	return s.displayName, nil
}

// RequireMembership fails with models.ErrNotMember unless group was joined.
func (s *Session) RequireMembership(group string) error {
	if !s.IsMember(group) {
		return models.ErrNotMember
	}
	return nil
}

// IsMember reports whether group was joined.
func (s *Session) IsMember(group string) bool {
	_, ok := s.joinedGroups[group]
	return ok
}

// Join records membership of group. Joining twice keeps a single entry.
func (s *Session) Join(group string) {
	s.joinedGroups[group] = struct{}{}
}

// Leave drops group from the joined set. Leaving an unjoined group is a no-op.
func (s *Session) Leave(group string) {
	delete(s.joinedGroups, group)
}

// Groups returns the joined groups sorted by name.
func (s *Session) Groups() []string {
	groups := make([]string, 0, len(s.joinedGroups))
	for g := range s.joinedGroups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
