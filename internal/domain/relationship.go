package domain

import "time"

// Profile is the domain view of a profile row.
type Profile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name"`
	IsPrivate         bool      `json:"is_private"`
	ProfilePictureKey string    `json:"-"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Counters are the denormalized relationship counts of one user.
type Counters struct {
	UserID    string `json:"user_id"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Friends   int64  `json:"friends"`
}

// CounterColumn names one column of user_counters.
type CounterColumn string

const (
	CounterFollowers CounterColumn = "followers"
	CounterFollowing CounterColumn = "following"
	CounterFriends   CounterColumn = "friends"
)

// Valid reports whether c is a known counter column.
func (c CounterColumn) Valid() bool {
	switch c {
	case CounterFollowers, CounterFollowing, CounterFriends:
		return true
	}
	return false
}

// FollowState is the outcome of a follow attempt.
type FollowState string

const (
	FollowStateFollowing FollowState = "following"
	FollowStateRequested FollowState = "requested"
)

// FriendState is the outcome of a friend attempt.
type FriendState string

const (
	FriendStateRequested FriendState = "requested"
	FriendStateFriends   FriendState = "friends"
)

// Direction selects incoming or outgoing pending requests.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// ParseDirection returns the direction named by s, defaulting to incoming.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", DirectionIncoming:
		return DirectionIncoming, nil
	case DirectionOutgoing:
		return DirectionOutgoing, nil
	}
	return "", ErrInvalidDirection
}

// RelationStatus describes every relation between a viewer and a target,
// always from the viewer's side.
type RelationStatus struct {
	Following             bool `json:"following"`
	FollowedBy            bool `json:"followed_by"`
	FollowRequested       bool `json:"follow_requested"`
	FollowRequestReceived bool `json:"follow_request_received"`
	Friends               bool `json:"friends"`
	FriendRequestSent     bool `json:"friend_request_sent"`
	FriendRequestReceived bool `json:"friend_request_received"`
	Blocked               bool `json:"blocked"`
	BlockedBy             bool `json:"blocked_by"`
}

// RelationshipEntry is one row of a relationship listing: the other user of
// the edge plus the viewer's status toward them.
type RelationshipEntry struct {
	ID                uint64          `json:"-"`
	UserID            string          `json:"user_id"`
	Username          string          `json:"username"`
	DisplayName       string          `json:"display_name"`
	ProfilePictureKey string          `json:"-"`
	ProfilePictureURL string          `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	Status            *RelationStatus `json:"status,omitempty"`
}

// EntryPage is one page of a relationship listing.
type EntryPage struct {
	Items      []RelationshipEntry `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// ProfileView is a profile as seen by a viewer.
type ProfileView struct {
	Profile  Profile         `json:"profile"`
	Counters Counters        `json:"counters"`
	Status   *RelationStatus `json:"status,omitempty"`
}
