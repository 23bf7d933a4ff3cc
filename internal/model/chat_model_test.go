package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChatMembership(t *testing.T) {
	a := User{Id: uuid.New(), FirstName: "A"}
	b := User{Id: uuid.New(), FirstName: "B"}
	chat := Chat{Id: uuid.New(), Participants: []User{a, b}}

	assert.True(t, chat.HasParticipant(a.Id))
	assert.True(t, chat.HasParticipant(b.Id))
	assert.False(t, chat.HasParticipant(uuid.New()))

	others := chat.OtherParticipants(a.Id)
	assert.Len(t, others, 1)
	assert.Equal(t, b.Id, others[0].Id)

	// Unknown user gets everyone back; the caller filters by identity,
	// not membership.
	assert.Len(t, chat.OtherParticipants(uuid.New()), 2)
}

func TestUserFullNameFallbacks(t *testing.T) {
	u := User{Email: "x@example.com", FirstName: "Aisha", LastName: "Khan"}
	assert.Equal(t, "Aisha Khan", u.FullName())

	u.LastName = ""
	assert.Equal(t, "Aisha", u.FullName())

	u.FirstName = ""
	assert.Equal(t, "x@example.com", u.FullName())
}

func TestUserAvatarURL(t *testing.T) {
	u := User{}
	assert.Empty(t, u.AvatarURL())

	url := "https://cdn.example.com/a.png"
	u.Avatar = &url
	assert.Equal(t, url, u.AvatarURL())
}
