package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	customErrors "github.com/streampulse/account-service/internal/domain/account/errors"
	"github.com/streampulse/account-service/internal/domain/account/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Subscription{},
		&model.Video{},
		&model.WatchHistoryEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, repo *PostgresUserRepo, handle, email string) model.User {
	t.Helper()
	u := model.User{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		FullName:     "User " + handle,
		PasswordHash: "hash",
		AvatarURL:    "https://media.test/" + handle + ".png",
	}
	if _, err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed %s: %v", handle, err)
	}
	return u
}

func TestUserRepo_CRUD(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	user := seedUser(t, repo, "alice", "alice@example.com")

	got, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by email: %v", err)
	}
	got, err = repo.GetUserByHandle(ctx, "alice")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by handle: %v", err)
	}
	got, err = repo.GetUserByHandleOrEmail(ctx, "alice")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by identifier (handle): %v", err)
	}
	got, err = repo.GetUserByHandleOrEmail(ctx, "alice@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by identifier (email): %v", err)
	}

	if _, err := repo.GetUserByID(ctx, uuid.New()); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	user.FullName = "Alice B"
	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetUserByID(ctx, user.ID)
	if got.FullName != "Alice B" {
		t.Fatalf("update not persisted: %q", got.FullName)
	}
}

func TestUserRepo_DuplicateCreate(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	seedUser(t, repo, "alice", "alice@example.com")

	dup := model.User{
		ID: uuid.New(), Handle: "alice", Email: "other@example.com",
		FullName: "Dup", PasswordHash: "h", AvatarURL: "a",
	}
	if _, err := repo.CreateUser(context.Background(), dup); !customErrors.IsAlreadyExists(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserRepo_RefreshTokenRotation(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()
	user := seedUser(t, repo, "alice", "alice@example.com")

	if err := repo.SetRefreshToken(ctx, user.ID, "rt-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, "rt-1", "rt-2"); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	// the swapped-out value no longer rotates
	if err := repo.RotateRefreshToken(ctx, user.ID, "rt-1", "rt-3"); !customErrors.IsTokenReuse(err) {
		t.Fatalf("expected reuse, got %v", err)
	}

	// the current value still does
	if err := repo.RotateRefreshToken(ctx, user.ID, "rt-2", "rt-3"); err != nil {
		t.Fatalf("rotate current: %v", err)
	}

	// clearing the slot kills every outstanding token
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "rt-3", "rt-4"); !customErrors.IsTokenReuse(err) {
		t.Fatalf("expected reuse after clear, got %v", err)
	}

	// a missing user is not reported as reuse
	if err := repo.RotateRefreshToken(ctx, uuid.New(), "x", "y"); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileRepo_ChannelAggregation(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	profiles := NewPostgresProfileRepo(db)
	ctx := context.Background()

	channel := seedUser(t, users, "alice", "alice@example.com")
	s1 := seedUser(t, users, "bob", "bob@example.com")
	s2 := seedUser(t, users, "carol", "carol@example.com")
	s3 := seedUser(t, users, "dave", "dave@example.com")

	subscribe := func(from, to uuid.UUID) {
		if err := db.Create(&model.Subscription{
			ID: uuid.New(), SubscriberID: from, ChannelID: to,
		}).Error; err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	// three subscribers, two subscriptions of her own
	subscribe(s1.ID, channel.ID)
	subscribe(s2.ID, channel.ID)
	subscribe(s3.ID, channel.ID)
	subscribe(channel.ID, s1.ID)
	subscribe(channel.ID, s2.ID)

	p, err := profiles.ChannelProfile(ctx, "alice", s1.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.SubscribersCount != 3 {
		t.Fatalf("subscribers want 3 got %d", p.SubscribersCount)
	}
	if p.ChannelsSubscribedCount != 2 {
		t.Fatalf("subscribed want 2 got %d", p.ChannelsSubscribedCount)
	}
	if !p.IsSubscribed {
		t.Fatal("bob is a subscriber")
	}

	p, err = profiles.ChannelProfile(ctx, "alice", uuid.New())
	if err != nil || p.IsSubscribed {
		t.Fatalf("stranger must not be subscribed (err %v)", err)
	}

	if _, err := profiles.ChannelProfile(ctx, "ghost", uuid.Nil); !customErrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileRepo_WatchHistoryOrderAndOwners(t *testing.T) {
	db := setupDB(t)
	users := NewPostgresUserRepo(db)
	profiles := NewPostgresProfileRepo(db)
	ctx := context.Background()

	viewer := seedUser(t, users, "viewer", "viewer@example.com")
	owner := seedUser(t, users, "creator", "creator@example.com")

	videoA := model.Video{ID: uuid.New(), OwnerID: owner.ID, Title: "A", URL: "https://v/a"}
	videoB := model.Video{ID: uuid.New(), OwnerID: owner.ID, Title: "B", URL: "https://v/b"}
	if err := db.Create(&videoA).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&videoB).Error; err != nil {
		t.Fatal(err)
	}

	for i, v := range []model.Video{videoA, videoB} {
		if err := db.Create(&model.WatchHistoryEntry{
			UserID: viewer.ID, VideoID: v.ID, Position: i,
		}).Error; err != nil {
			t.Fatal(err)
		}
	}

	history, err := profiles.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("want 2 entries got %d", len(history))
	}
	if history[0].Title != "A" || history[1].Title != "B" {
		t.Fatalf("order broken: %s, %s", history[0].Title, history[1].Title)
	}
	for _, h := range history {
		if h.Owner.Handle != "creator" || h.Owner.FullName != "User creator" {
			t.Fatalf("owner fields missing: %+v", h.Owner)
		}
		if h.Owner.Avatar == "" {
			t.Fatal("owner avatar missing")
		}
	}

	empty, err := profiles.WatchHistory(ctx, uuid.New())
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty history: %v %d", err, len(empty))
	}
}
