package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/streampulse/account-service/internal/adapters/transport/http/dto"
	"github.com/streampulse/account-service/internal/adapters/transport/http/middleware"
	"github.com/streampulse/account-service/internal/app/account/service"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	"github.com/streampulse/account-service/internal/infra/config"
	"go.uber.org/zap"
)

type Handler struct {
	svc service.Service
	cfg *config.Config
	log *zap.Logger
}

func NewHandler(svc service.Service, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

// RegisterRoutes mounts the account API under /api/v1/users.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	gate := middleware.AuthGate(h.svc)

	users := r.Group("/api/v1/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	users.GET("", gate, h.CurrentUser)
	users.GET("/current-user", gate, h.CurrentUser)
	users.POST("/logout", gate, h.Logout)
	users.POST("/change-password", gate, h.ChangePassword)
	users.PATCH("/update-details", gate, h.UpdateDetails)
	users.PATCH("/update-avatar", gate, h.UpdateAvatar)
	users.PATCH("/update-cover-image", gate, h.UpdateCoverImage)
	users.GET("/c/:handle", gate, h.ChannelProfile)
	users.GET("/history", gate, h.WatchHistory)
}

func (h *Handler) Register(c *gin.Context) {
	var in dto.RegisterDTO
	if err := c.ShouldBind(&in); err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, err.Error())
		return
	}

	avatarPath, err := h.stageFile(c, "avatar")
	if err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, "avatar file could not be read")
		return
	}
	if avatarPath == "" {
		respond(c, stdhttp.StatusBadRequest, nil, "avatar file is required")
		return
	}
	in.AvatarPath = avatarPath

	if coverPath, err := h.stageFile(c, "coverImage"); err == nil {
		in.CoverPath = coverPath
	}

	user, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	respond(c, stdhttp.StatusCreated, user, "user registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	var in dto.LoginDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, err.Error())
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	respond(c, stdhttp.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "logged in successfully")
}

func (h *Handler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie("refreshToken")
	if presented == "" {
		var in dto.RefreshDTO
		if err := c.ShouldBindJSON(&in); err != nil {
			respond(c, stdhttp.StatusUnauthorized, nil, "refresh token is required")
			return
		}
		presented = in.RefreshToken
	}

	pair, err := h.svc.Refresh(c.Request.Context(), presented)
	if err != nil {
		// token failures surface uniformly as unauthorized, message preserved
		h.handleError(c, err)
		return
	}

	h.setAuthCookies(c, pair)
	respond(c, stdhttp.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "token refreshed")
}

func (h *Handler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		h.handleError(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, stdhttp.StatusOK, nil, "logged out")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	var in dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, err.Error())
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, in); err != nil {
		h.handleError(c, err)
		return
	}

	respond(c, stdhttp.StatusOK, nil, "password changed")
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}
	respond(c, stdhttp.StatusOK, user, "current user")
}

func (h *Handler) UpdateDetails(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	var in dto.UpdateDetailsDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, err.Error())
		return
	}

	updated, err := h.svc.UpdateDetails(c.Request.Context(), user.ID, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, stdhttp.StatusOK, updated, "account details updated")
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.updateMedia(c, "avatar", h.svc.UpdateAvatar)
}

func (h *Handler) UpdateCoverImage(c *gin.Context) {
	h.updateMedia(c, "coverImage", h.svc.UpdateCoverImage)
}

func (h *Handler) updateMedia(
	c *gin.Context,
	field string,
	update func(ctx context.Context, userID uuid.UUID, localPath string) (model.User, error),
) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	localPath, err := h.stageFile(c, field)
	if err != nil {
		respond(c, stdhttp.StatusBadRequest, nil, field+" file could not be read")
		return
	}
	if localPath == "" {
		respond(c, stdhttp.StatusBadRequest, nil, field+" file is required")
		return
	}

	updated, err := update(c.Request.Context(), user.ID, localPath)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, stdhttp.StatusOK, updated, field+" updated")
}

func (h *Handler) ChannelProfile(c *gin.Context) {
	viewer, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	profile, err := h.svc.ChannelProfile(c.Request.Context(), c.Param("handle"), viewer.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, stdhttp.StatusOK, profile, "channel profile")
}

func (h *Handler) WatchHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, stdhttp.StatusUnauthorized, nil, "unauthorized")
		return
	}

	history, err := h.svc.WatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respond(c, stdhttp.StatusOK, history, "watch history")
}

// stageFile copies a multipart part into the staging directory and returns
// its local path; empty path when the part is absent.
func (h *Handler) stageFile(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, stdhttp.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}

	dst := filepath.Join(h.cfg.TmpUploadDir, uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		respond(c, stdhttp.StatusBadRequest, nil, err.Error())
	case customErrors.IsAlreadyExists(err):
		respond(c, stdhttp.StatusConflict, nil, "user with this handle or email already exists")
	case customErrors.IsTokenReuse(err),
		customErrors.IsTokenExpired(err),
		customErrors.IsInvalidToken(err),
		customErrors.IsInvalidCredentials(err):
		respond(c, stdhttp.StatusUnauthorized, nil, err.Error())
	case customErrors.IsNotFound(err):
		respond(c, stdhttp.StatusNotFound, nil, "not found")
	default:
		h.log.Error("unhandled error", zap.Error(err))
		respond(c, stdhttp.StatusInternalServerError, nil, "internal server error")
	}
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, dto.Envelope{Status: status, Data: data, Message: message})
}

func (h *Handler) setAuthCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(stdhttp.SameSiteLaxMode)
	c.SetCookie(
		"accessToken",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(stdhttp.SameSiteStrictMode)
	c.SetCookie(
		"refreshToken",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(stdhttp.SameSiteLaxMode)
	c.SetCookie("accessToken", "", -1, "/", h.cfg.CookieDomain, true, true)
	c.SetSameSite(stdhttp.SameSiteStrictMode)
	c.SetCookie("refreshToken", "", -1, "/", h.cfg.CookieDomain, true, true)
}
