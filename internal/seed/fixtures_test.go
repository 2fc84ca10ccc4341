package seed

import (
	"os"
	"path/filepath"
	"testing"

	"campfire/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const fixtureYAML = `
users:
  - username: ember
    email: ember@example.com
    bio: Keeper of the flame.
    admin: true
    follows: [ash]
  - username: ash
    follows: [ember]
  - username: cinder
campaigns:
  - title: The Commons
    category: general
    description: Core discussion.
    creator: ember
    members: [ash, cinder]
`

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFixtures_Valid(t *testing.T) {
	t.Parallel()

	f, err := LoadFixtures(writeFixture(t, fixtureYAML))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(f.Users) != 3 || len(f.Campaigns) != 1 {
		t.Fatalf("unexpected fixture counts: %d users, %d campaigns", len(f.Users), len(f.Campaigns))
	}
	if !f.Users[0].Admin {
		t.Fatal("expected ember to be admin")
	}
}

func TestLoadFixtures_RejectsBadReferences(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown followee": `
users:
  - username: ember
    follows: [ghost]
`,
		"self follow": `
users:
  - username: ember
    follows: [ember]
`,
		"unknown creator": `
users:
  - username: ember
campaigns:
  - title: The Commons
    creator: ghost
`,
		"duplicate username": `
users:
  - username: ember
  - username: ember
`,
	}

	for name, contents := range cases {
		contents := contents
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadFixtures(writeFixture(t, contents)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyFixtures(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Campaign{}, &models.CampaignMember{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f, err := LoadFixtures(writeFixture(t, fixtureYAML))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}

	seeder := NewSeeder(db, Options{SkipBcrypt: true})
	if err := seeder.ApplyFixtures(f); err != nil {
		t.Fatalf("apply fixtures: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 3 {
		t.Fatalf("expected 3 users, got %d", userCount)
	}

	var followCount int64
	if err := db.Model(&models.Follow{}).Count(&followCount).Error; err != nil {
		t.Fatalf("count follows: %v", err)
	}
	if followCount != 2 {
		t.Fatalf("expected 2 follow edges, got %d", followCount)
	}

	var campaign models.Campaign
	if err := db.Where("title = ?", "The Commons").First(&campaign).Error; err != nil {
		t.Fatalf("load campaign: %v", err)
	}
	var memberCount int64
	if err := db.Model(&models.CampaignMember{}).Where("campaign_id = ?", campaign.ID).Count(&memberCount).Error; err != nil {
		t.Fatalf("count members: %v", err)
	}
	// creator plus two listed members
	if memberCount != 3 {
		t.Fatalf("expected 3 members, got %d", memberCount)
	}
}
