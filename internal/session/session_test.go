package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat-service/internal/models"
)

func TestRequireDisplayName(t *testing.T) {
	s := New("c1")

	_, err := s.RequireDisplayName()
	require.ErrorIs(t, err, models.ErrIdentityNotSet)

	require.Equal(t, "alice", s.SetDisplayName("alice"))
	name, err := s.RequireDisplayName()
	require.NoError(t, err)
	require.Equal(t, "alice", name)

	s.SetDisplayName("alice2")
	name, _ = s.DisplayName()
	require.Equal(t, "alice2", name)
}

func TestMembershipIsASet(t *testing.T) {
	s := New("c1")
	require.ErrorIs(t, s.RequireMembership("book-club"), models.ErrNotMember)

	s.Join("book-club")
	s.Join("book-club")
	s.Join("chess")
	require.NoError(t, s.RequireMembership("book-club"))
	require.Equal(t, []string{"book-club", "chess"}, s.Groups())

	s.Leave("book-club")
	require.ErrorIs(t, s.RequireMembership("book-club"), models.ErrNotMember)
	require.Equal(t, []string{"chess"}, s.Groups())
}
