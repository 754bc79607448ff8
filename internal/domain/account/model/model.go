package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the credential-store record. PasswordHash and RefreshToken never
// leave the process: they are excluded from JSON and stripped again in the
// transport DTOs.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Handle       string    `gorm:"uniqueIndex" json:"handle"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	FullName     string    `gorm:"index" json:"fullName"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar"`
	CoverURL     string    `json:"coverImage"`
	// Single-slot refresh token. Empty means no active session; overwriting
	// it invalidates every previously issued refresh token for this user.
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subscription is a directed edge: Subscriber follows Channel.
// (subscriber_id, channel_id) is unique so the same edge cannot be added twice.
type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubscriberID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_sub_edge"`
	ChannelID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_sub_edge"`
	CreatedAt    time.Time
}

type Video struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index" json:"ownerId"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     int       `json:"duration"` // seconds
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchHistoryEntry keeps the user's video list ordered by Position.
type WatchHistoryEntry struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	VideoID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"index"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}

// VideoOwner is the public slice of a video owner's profile exposed in
// watch-history results.
type VideoOwner struct {
	Handle   string `json:"handle"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

type VideoWithOwner struct {
	Video
	Owner VideoOwner `json:"owner"`
}

// ChannelProfile is the aggregated read-only projection of a user's channel.
type ChannelProfile struct {
	ID                      uuid.UUID `json:"id"`
	Handle                  string    `json:"handle"`
	Email                   string    `json:"email"`
	FullName                string    `json:"fullName"`
	Avatar                  string    `json:"avatar"`
	CoverImage              string    `json:"coverImage"`
	SubscribersCount        int64     `json:"subscribersCount"`
	ChannelsSubscribedCount int64     `json:"channelsSubscribedCount"`
	IsSubscribed            bool      `json:"isSubscribed"`
}
