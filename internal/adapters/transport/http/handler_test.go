package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	httptransport "github.com/streampulse/account-service/internal/adapters/transport/http"
	"github.com/streampulse/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	"github.com/streampulse/account-service/internal/infra/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSvc satisfies service.Service with canned results. Validate accepts
// exactly one token value.
type stubSvc struct {
	user       model.User
	validToken string
	pair       model.TokenPair
	profile    model.ChannelProfile
	profileErr error
	history    []model.VideoWithOwner
	refreshErr error
	loginErr   error
}

func (s *stubSvc) Register(_ context.Context, _ dto.RegisterDTO) (model.User, error) {
	return s.user, nil
}

func (s *stubSvc) Login(_ context.Context, _ dto.LoginDTO) (model.User, model.TokenPair, error) {
	if s.loginErr != nil {
		return model.User{}, model.TokenPair{}, s.loginErr
	}
	return s.user, s.pair, nil
}

func (s *stubSvc) Validate(_ context.Context, token string) (model.User, error) {
	if token != s.validToken {
		return model.User{}, customErrors.ErrInvalidToken
	}
	return s.user, nil
}

func (s *stubSvc) Refresh(_ context.Context, _ string) (model.TokenPair, error) {
	if s.refreshErr != nil {
		return model.TokenPair{}, s.refreshErr
	}
	return s.pair, nil
}

func (s *stubSvc) Logout(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubSvc) ChangePassword(_ context.Context, _ uuid.UUID, _ dto.ChangePasswordDTO) error {
	return nil
}

func (s *stubSvc) UpdateDetails(_ context.Context, _ uuid.UUID, _ dto.UpdateDetailsDTO) (model.User, error) {
	return s.user, nil
}

func (s *stubSvc) UpdateAvatar(_ context.Context, _ uuid.UUID, _ string) (model.User, error) {
	return s.user, nil
}

func (s *stubSvc) UpdateCoverImage(_ context.Context, _ uuid.UUID, _ string) (model.User, error) {
	return s.user, nil
}

func (s *stubSvc) ChannelProfile(_ context.Context, _ string, _ uuid.UUID) (model.ChannelProfile, error) {
	if s.profileErr != nil {
		return model.ChannelProfile{}, s.profileErr
	}
	return s.profile, nil
}

func (s *stubSvc) WatchHistory(_ context.Context, _ uuid.UUID) ([]model.VideoWithOwner, error) {
	return s.history, nil
}

func newRouter(svc *stubSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{CookieDomain: "example.com", TmpUploadDir: "/tmp"}
	h := httptransport.NewHandler(svc, cfg, zap.NewNop())

	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func newStub() *stubSvc {
	return &stubSvc{
		user: model.User{
			ID:     uuid.New(),
			Handle: "alice",
			Email:  "alice@example.com",
		},
		validToken: "valid-access",
		pair: model.TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			AccessTTL:    time.Minute,
			RefreshTTL:   time.Hour,
		},
	}
}

func doJSON(r *gin.Engine, method, path, body string, authorize string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorize != "" {
		req.Header.Set("Authorization", "Bearer "+authorize)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Envelope {
	t.Helper()
	var env dto.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestGate_MissingAndInvalidToken(t *testing.T) {
	r := newRouter(newStub())

	w := doJSON(r, http.MethodGet, "/api/v1/users/current-user", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/users/current-user", "", "wrong-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGate_ValidTokenReachesHandler(t *testing.T) {
	svc := newStub()
	r := newRouter(svc)

	w := doJSON(r, http.MethodGet, "/api/v1/users/current-user", "", "valid-access")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.Equal(t, http.StatusOK, env.Status)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.Contains(t, string(data), "alice")
	require.NotContains(t, string(data), "PasswordHash")
	require.NotContains(t, string(data), "passwordHash")
	require.NotContains(t, string(data), "refreshToken")
}

func TestGate_AcceptsCookie(t *testing.T) {
	r := newRouter(newStub())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid-access"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_SetsBothCookies(t *testing.T) {
	r := newRouter(newStub())

	w := doJSON(r, http.MethodPost, "/api/v1/users/login",
		`{"identifier":"alice","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	names := map[string]*http.Cookie{}
	for _, c := range cookies {
		names[c.Name] = c
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")
	require.True(t, names["accessToken"].HttpOnly)
	require.True(t, names["accessToken"].Secure)
	require.True(t, names["refreshToken"].HttpOnly)

	env := decodeEnvelope(t, w)
	data, _ := json.Marshal(env.Data)
	require.Contains(t, string(data), "new-access")
	require.Contains(t, string(data), "new-refresh")
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newStub()
	svc.loginErr = customErrors.ErrInvalidCredentials
	r := newRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/users/login",
		`{"identifier":"alice","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_CookieOrBody(t *testing.T) {
	r := newRouter(newStub())

	// via cookie
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(""))
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "some-refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// via body
	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token",
		`{"refreshToken":"some-refresh"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	// neither
	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_ReuseIsUnauthorized(t *testing.T) {
	svc := newStub()
	svc.refreshErr = customErrors.ErrTokenReuse
	r := newRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/users/refresh-token",
		`{"refreshToken":"stale"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	env := decodeEnvelope(t, w)
	require.Contains(t, env.Message, "reused")
}

func TestLogout_ClearsCookies(t *testing.T) {
	r := newRouter(newStub())

	w := doJSON(r, http.MethodPost, "/api/v1/users/logout", "", "valid-access")
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		require.Empty(t, c.Value)
		require.Negative(t, c.MaxAge)
	}
}

func TestChannelProfile_NotFound(t *testing.T) {
	svc := newStub()
	svc.profileErr = customErrors.ErrNotFound
	r := newRouter(svc)

	w := doJSON(r, http.MethodGet, "/api/v1/users/c/ghost", "", "valid-access")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatchHistory_OK(t *testing.T) {
	svc := newStub()
	svc.history = []model.VideoWithOwner{
		{Video: model.Video{ID: uuid.New(), Title: "A"}, Owner: model.VideoOwner{Handle: "creator"}},
		{Video: model.Video{ID: uuid.New(), Title: "B"}, Owner: model.VideoOwner{Handle: "creator"}},
	}
	r := newRouter(svc)

	w := doJSON(r, http.MethodGet, "/api/v1/users/history", "", "valid-access")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	data, _ := json.Marshal(env.Data)
	require.Contains(t, string(data), `"A"`)
	require.Contains(t, string(data), "creator")
}
