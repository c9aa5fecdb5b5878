package domain

import "time"

// ProfileModel is the GORM model for the profiles table, a local mirror of
// the account directory consulted by the privacy gate.
type ProfileModel struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)"`
	Username          string    `gorm:"type:varchar(64);not null;default:''"`
	DisplayName       string    `gorm:"type:varchar(128);not null;default:''"`
	IsPrivate         bool      `gorm:"not null;default:false"`
	ProfilePictureKey string    `gorm:"type:varchar(512);not null;default:''"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (ProfileModel) TableName() string { return "profiles" }

// FollowModel is the GORM model for the follows table.
// A row means SenderID follows RecipientID.
type FollowModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID    string    `gorm:"column:sender_id;type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:1;index:idx_follows_sender_created,priority:1;check:chk_follows_no_self,sender_id <> recipient_id"`
	RecipientID string    `gorm:"column:recipient_id;type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:2;index:idx_follows_recipient_created,priority:1"`
	CreatedAt   time.Time `gorm:"not null;index:idx_follows_sender_created,priority:2;index:idx_follows_recipient_created,priority:2"`

	Sender    ProfileModel `gorm:"foreignKey:SenderID;references:ID;constraint:OnDelete:CASCADE"`
	Recipient ProfileModel `gorm:"foreignKey:RecipientID;references:ID;constraint:OnDelete:CASCADE"`
}

func (FollowModel) TableName() string { return "follows" }

// FollowRequestModel is the GORM model for pending follows of private profiles.
type FollowRequestModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID    string    `gorm:"column:sender_id;type:varchar(36);not null;uniqueIndex:idx_follow_requests_pair,priority:1;index:idx_follow_requests_sender_created,priority:1;check:chk_follow_requests_no_self,sender_id <> recipient_id"`
	RecipientID string    `gorm:"column:recipient_id;type:varchar(36);not null;uniqueIndex:idx_follow_requests_pair,priority:2;index:idx_follow_requests_recipient_created,priority:1"`
	CreatedAt   time.Time `gorm:"not null;index:idx_follow_requests_sender_created,priority:2;index:idx_follow_requests_recipient_created,priority:2"`

	Sender    ProfileModel `gorm:"foreignKey:SenderID;references:ID;constraint:OnDelete:CASCADE"`
	Recipient ProfileModel `gorm:"foreignKey:RecipientID;references:ID;constraint:OnDelete:CASCADE"`
}

func (FollowRequestModel) TableName() string { return "follow_requests" }

// FriendModel is the GORM model for the friends table. The pair is stored
// with UserAID < UserBID so each friendship has exactly one row.
type FriendModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserAID   string    `gorm:"column:user_a_id;type:varchar(36);not null;uniqueIndex:idx_friends_pair,priority:1;index:idx_friends_a_created,priority:1;check:chk_friends_no_self,user_a_id <> user_b_id"`
	UserBID   string    `gorm:"column:user_b_id;type:varchar(36);not null;uniqueIndex:idx_friends_pair,priority:2;index:idx_friends_b_created,priority:1"`
	CreatedAt time.Time `gorm:"not null;index:idx_friends_a_created,priority:2;index:idx_friends_b_created,priority:2"`

	UserA ProfileModel `gorm:"foreignKey:UserAID;references:ID;constraint:OnDelete:CASCADE"`
	UserB ProfileModel `gorm:"foreignKey:UserBID;references:ID;constraint:OnDelete:CASCADE"`
}

func (FriendModel) TableName() string { return "friends" }

// FriendRequestModel is the GORM model for pending friend requests.
type FriendRequestModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID    string    `gorm:"column:sender_id;type:varchar(36);not null;uniqueIndex:idx_friend_requests_pair,priority:1;index:idx_friend_requests_sender_created,priority:1;check:chk_friend_requests_no_self,sender_id <> recipient_id"`
	RecipientID string    `gorm:"column:recipient_id;type:varchar(36);not null;uniqueIndex:idx_friend_requests_pair,priority:2;index:idx_friend_requests_recipient_created,priority:1"`
	CreatedAt   time.Time `gorm:"not null;index:idx_friend_requests_sender_created,priority:2;index:idx_friend_requests_recipient_created,priority:2"`

	Sender    ProfileModel `gorm:"foreignKey:SenderID;references:ID;constraint:OnDelete:CASCADE"`
	Recipient ProfileModel `gorm:"foreignKey:RecipientID;references:ID;constraint:OnDelete:CASCADE"`
}

func (FriendRequestModel) TableName() string { return "friend_requests" }

// BlockModel is the GORM model for the blocks table.
type BlockModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	BlockerID string    `gorm:"column:blocker_id;type:varchar(36);not null;uniqueIndex:idx_blocks_pair,priority:1;index:idx_blocks_blocker_created,priority:1;check:chk_blocks_no_self,blocker_id <> blocked_id"`
	BlockedID string    `gorm:"column:blocked_id;type:varchar(36);not null;uniqueIndex:idx_blocks_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"not null;index:idx_blocks_blocker_created,priority:2"`

	Blocker ProfileModel `gorm:"foreignKey:BlockerID;references:ID;constraint:OnDelete:CASCADE"`
	Blocked ProfileModel `gorm:"foreignKey:BlockedID;references:ID;constraint:OnDelete:CASCADE"`
}

func (BlockModel) TableName() string { return "blocks" }

// UserCounterModel holds the denormalized relationship counts of one user.
type UserCounterModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:varchar(36)"`
	Followers int64     `gorm:"not null;default:0"`
	Following int64     `gorm:"not null;default:0"`
	Friends   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`

	User ProfileModel `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (UserCounterModel) TableName() string { return "user_counters" }

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&ProfileModel{},
		&FollowModel{},
		&FollowRequestModel{},
		&FriendModel{},
		&FriendRequestModel{},
		&BlockModel{},
		&UserCounterModel{},
	}
}
