package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	"gorm.io/gorm"
)

// PostgresProfileRepo serves the read-only aggregations. Counts run
// server-side over the subscription edges; the watch history resolves in a
// fixed number of queries regardless of list length.
type PostgresProfileRepo struct {
	db *gorm.DB
}

func NewPostgresProfileRepo(db *gorm.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

func (p *PostgresProfileRepo) ChannelProfile(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("handle = ?", handle).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.ChannelProfile{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	var subscribers int64
	if err := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("channel_id = ?", u.ID).
		Count(&subscribers).Error; err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	var subscribedTo int64
	if err := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ?", u.ID).
		Count(&subscribedTo).Error; err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	isSubscribed := false
	if viewerID != uuid.Nil {
		var n int64
		if err := p.db.WithContext(ctx).Model(&model.Subscription{}).
			Where("channel_id = ? AND subscriber_id = ?", u.ID, viewerID).
			Count(&n).Error; err != nil {
			return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
		}
		isSubscribed = n > 0
	}

	return model.ChannelProfile{
		ID:                      u.ID,
		Handle:                  u.Handle,
		Email:                   u.Email,
		FullName:                u.FullName,
		Avatar:                  u.AvatarURL,
		CoverImage:              u.CoverURL,
		SubscribersCount:        subscribers,
		ChannelsSubscribedCount: subscribedTo,
		IsSubscribed:            isSubscribed,
	}, nil
}

func (p *PostgresProfileRepo) WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.VideoWithOwner, error) {
	var entries []model.WatchHistoryEntry
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position").
		Find(&entries).Error; err != nil {
		return nil, customErrors.WrapInternal(err, "WatchHistory")
	}
	if len(entries) == 0 {
		return []model.VideoWithOwner{}, nil
	}

	videoIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		videoIDs = append(videoIDs, e.VideoID)
	}

	var videos []model.Video
	if err := p.db.WithContext(ctx).
		Where("id IN ?", videoIDs).
		Find(&videos).Error; err != nil {
		return nil, customErrors.WrapInternal(err, "WatchHistory")
	}

	videoByID := make(map[uuid.UUID]model.Video, len(videos))
	ownerIDs := make([]uuid.UUID, 0, len(videos))
	seen := make(map[uuid.UUID]bool, len(videos))
	for _, v := range videos {
		videoByID[v.ID] = v
		if !seen[v.OwnerID] {
			seen[v.OwnerID] = true
			ownerIDs = append(ownerIDs, v.OwnerID)
		}
	}

	// one batched fetch for every distinct owner, public fields only
	var owners []model.User
	if len(ownerIDs) > 0 {
		if err := p.db.WithContext(ctx).
			Select("id", "handle", "full_name", "avatar_url").
			Where("id IN ?", ownerIDs).
			Find(&owners).Error; err != nil {
			return nil, customErrors.WrapInternal(err, "WatchHistory")
		}
	}
	ownerByID := make(map[uuid.UUID]model.VideoOwner, len(owners))
	for _, o := range owners {
		ownerByID[o.ID] = model.VideoOwner{
			Handle:   o.Handle,
			FullName: o.FullName,
			Avatar:   o.AvatarURL,
		}
	}

	out := make([]model.VideoWithOwner, 0, len(entries))
	for _, e := range entries {
		v, ok := videoByID[e.VideoID]
		if !ok {
			// dangling reference, the video was removed
			continue
		}
		out = append(out, model.VideoWithOwner{
			Video: v,
			Owner: ownerByID[v.OwnerID],
		})
	}
	return out, nil
}
