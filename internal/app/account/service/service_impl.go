package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/streampulse/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	"github.com/streampulse/account-service/internal/domain/account/repo"
	"github.com/streampulse/account-service/internal/domain/account/token"
	"github.com/streampulse/account-service/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Service interface {
	Register(ctx context.Context, in dto.RegisterDTO) (model.User, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.User, model.TokenPair, error)
	Validate(ctx context.Context, accessToken string) (model.User, error)
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error
	UpdateDetails(ctx context.Context, userID uuid.UUID, in dto.UpdateDetailsDTO) (model.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error)
	ChannelProfile(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.VideoWithOwner, error)
}

type accountService struct {
	userRepo    repo.UserRepo
	profileRepo repo.ProfileRepo
	cache       repo.ProfileCache
	media       repo.MediaStore
	tokenUtil   token.TokenUtil
	cfg         *config.Config
	v           *validator.Validate
}

func New(
	ur repo.UserRepo,
	pr repo.ProfileRepo,
	pc repo.ProfileCache,
	ms repo.MediaStore,
	tu token.TokenUtil,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &accountService{
		userRepo: ur, profileRepo: pr, cache: pc, media: ms,
		tokenUtil: tu, cfg: cfg, v: v,
	}
}

func (a *accountService) Register(ctx context.Context, in dto.RegisterDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	handle := strings.ToLower(in.Handle)
	email := strings.ToLower(in.Email)

	if _, err := a.userRepo.GetUserByHandle(ctx, handle); err == nil {
		return model.User{}, customErrors.ErrAlreadyExists
	} else if !customErrors.IsNotFound(err) {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}
	if _, err := a.userRepo.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, customErrors.ErrAlreadyExists
	} else if !customErrors.IsNotFound(err) {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	avatarURL, err := a.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "avatar upload")
	}

	coverURL := ""
	if in.CoverPath != "" {
		coverURL, err = a.media.Upload(ctx, in.CoverPath)
		if err != nil {
			_ = a.media.Delete(ctx, avatarURL)
			return model.User{}, customErrors.WrapInternal(err, "cover upload")
		}
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: passwordHash,
		AvatarURL:    avatarURL,
		CoverURL:     coverURL,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		// no partial success: the uploaded media must not outlive a failed create
		_ = a.media.Delete(ctx, avatarURL)
		if coverURL != "" {
			_ = a.media.Delete(ctx, coverURL)
		}
		if customErrors.IsAlreadyExists(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "Register")
	}

	return sanitize(user), nil
}

func (a *accountService) Login(ctx context.Context, in dto.LoginDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByHandleOrEmail(ctx, strings.ToLower(in.Identifier))
	switch {
	case customErrors.IsNotFound(err):
		return model.User{}, model.TokenPair{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	return sanitize(user), pair, nil
}

func (a *accountService) Validate(ctx context.Context, accessToken string) (model.User, error) {
	claims, err := a.tokenUtil.ValidateAccessToken(accessToken)
	if err != nil {
		if customErrors.IsTokenExpired(err) {
			return model.User{}, customErrors.ErrTokenExpired
		}
		return model.User{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}
	return sanitize(user), nil
}

func (a *accountService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	if presented == "" {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	claims, err := a.tokenUtil.ValidateRefreshToken(presented)
	if err != nil {
		if customErrors.IsTokenExpired(err) {
			return model.TokenPair{}, customErrors.ErrTokenExpired
		}
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case customErrors.IsNotFound(err):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// A signed, unexpired token that does not match the stored slot is a
	// stale token from a previous rotation cycle (or a token presented
	// after logout).
	if user.RefreshToken == "" || user.RefreshToken != presented {
		return model.TokenPair{}, customErrors.ErrTokenReuse
	}

	at, atExp, err := a.tokenUtil.GenerateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.tokenUtil.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	// Conditional swap keyed on the presented value: a concurrent rotation
	// for the same user loses the race and surfaces as reuse.
	if err := a.userRepo.RotateRefreshToken(ctx, user.ID, presented, rt); err != nil {
		if customErrors.IsTokenReuse(err) {
			return model.TokenPair{}, customErrors.ErrTokenReuse
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "RotateRefreshToken")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func (a *accountService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := a.userRepo.SetRefreshToken(ctx, userID, ""); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return customErrors.ErrNotFound
		}
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.OldPassword+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if !ok {
		return customErrors.ErrInvalidCredentials
	}

	hash, err := argon2id.CreateHash(in.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	if err := a.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	return nil
}

func (a *accountService) UpdateDetails(ctx context.Context, userID uuid.UUID, in dto.UpdateDetailsDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}
	if in.FullName == "" && in.Email == "" {
		return model.User{}, customErrors.NewInvalidArgument("at least one of fullName, email is required")
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "UpdateDetails")
	}

	if in.Email != "" {
		email := strings.ToLower(in.Email)
		if other, err := a.userRepo.GetUserByEmail(ctx, email); err == nil && other.ID != userID {
			return model.User{}, customErrors.ErrAlreadyExists
		} else if err != nil && !customErrors.IsNotFound(err) {
			return model.User{}, customErrors.WrapInternal(err, "UpdateDetails")
		}
		user.Email = email
	}
	if in.FullName != "" {
		user.FullName = in.FullName
	}

	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdateDetails")
	}

	_ = a.cache.InvalidateChannel(ctx, user.Handle)
	return sanitize(user), nil
}

func (a *accountService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error) {
	return a.updateMedia(ctx, userID, localPath, func(u *model.User, url string) { u.AvatarURL = url })
}

func (a *accountService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error) {
	return a.updateMedia(ctx, userID, localPath, func(u *model.User, url string) { u.CoverURL = url })
}

func (a *accountService) updateMedia(
	ctx context.Context,
	userID uuid.UUID,
	localPath string,
	assign func(*model.User, string),
) (model.User, error) {
	if localPath == "" {
		return model.User{}, customErrors.NewInvalidArgument("file is required")
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return model.User{}, customErrors.ErrNotFound
		}
		return model.User{}, customErrors.WrapInternal(err, "updateMedia")
	}

	url, err := a.media.Upload(ctx, localPath)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "media upload")
	}

	assign(&user, url)
	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		// compensate so the media store does not drift from the record
		_ = a.media.Delete(ctx, url)
		return model.User{}, customErrors.WrapInternal(err, "updateMedia")
	}

	_ = a.cache.InvalidateChannel(ctx, user.Handle)
	return sanitize(user), nil
}

func (a *accountService) ChannelProfile(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return model.ChannelProfile{}, customErrors.NewInvalidArgument("handle is required")
	}

	if p, ok, err := a.cache.GetChannel(ctx, handle, viewerID); err == nil && ok {
		return p, nil
	}

	p, err := a.profileRepo.ChannelProfile(ctx, handle, viewerID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return model.ChannelProfile{}, customErrors.ErrNotFound
		}
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	_ = a.cache.SetChannel(ctx, handle, viewerID, p, a.cfg.ChannelCacheTTL)
	return p, nil
}

func (a *accountService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.VideoWithOwner, error) {
	history, err := a.profileRepo.WatchHistory(ctx, userID)
	if err != nil {
		if customErrors.IsNotFound(err) {
			return nil, customErrors.ErrNotFound
		}
		return nil, customErrors.WrapInternal(err, "WatchHistory")
	}
	return history, nil
}

func (a *accountService) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	at, atExp, err := a.tokenUtil.GenerateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.tokenUtil.GenerateRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	// Overwrites any previously stored refresh token: one active session
	// per user, older sessions can no longer refresh.
	if err := a.userRepo.SetRefreshToken(ctx, user.ID, rt); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "StoreRefresh")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func sanitize(u model.User) model.User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}
