package seed

import (
	"testing"
	"time"

	"campfire/internal/models"
)

func TestBuildPost_TimestampSpread(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	user := &models.User{ID: 1}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(user)
		if p.UserID != user.ID {
			t.Fatalf("post bound to user %d, want %d", p.UserID, user.ID)
		}
		if p.Content == "" {
			t.Fatal("expected generated content")
		}
		if time.Since(p.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
			t.Fatalf("created_at too old: %v", p.CreatedAt)
		}
	}
}

func TestFactory_DryRunAssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	u1, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u2, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u1.ID == 0 || u2.ID == 0 || u1.ID == u2.ID {
		t.Fatalf("expected distinct synthetic IDs, got %d and %d", u1.ID, u2.ID)
	}
	if u1.Password != "password123" {
		t.Fatalf("expected plaintext password in fast mode, got %q", u1.Password)
	}

	posts := []*models.Post{f.BuildPost(u1), f.BuildPost(u2)}
	if err := f.CreatePostsBatch(posts); err != nil {
		t.Fatalf("batch create: %v", err)
	}
	if posts[0].ID == 0 || posts[0].ID == posts[1].ID {
		t.Fatalf("expected distinct batch IDs, got %d and %d", posts[0].ID, posts[1].ID)
	}
}
