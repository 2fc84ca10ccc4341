package seed

import (
	"fmt"
	"os"

	"campfire/internal/models"

	"gopkg.in/yaml.v3"
)

// FixtureFile is the YAML document consumed by the seeder's -fixtures flag.
// It describes a deterministic dataset, unlike the random presets.
type FixtureFile struct {
	Users     []UserFixture     `yaml:"users"`
	Campaigns []CampaignFixture `yaml:"campaigns"`
}

// UserFixture declares one user account and who they follow.
type UserFixture struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Bio      string   `yaml:"bio"`
	Avatar   string   `yaml:"avatar"`
	Admin    bool     `yaml:"admin"`
	Follows  []string `yaml:"follows"`
}

// CampaignFixture declares one campaign, its creator and its members, all by
// username.
type CampaignFixture struct {
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Creator     string   `yaml:"creator"`
	Members     []string `yaml:"members"`
}

// LoadFixtures reads and validates a fixture file.
func LoadFixtures(path string) (*FixtureFile, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's CLI flag
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var f FixtureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}

	names := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("user %d: username is required", i)
		}
		if names[u.Username] {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		names[u.Username] = true
	}
	for _, u := range f.Users {
		for _, followee := range u.Follows {
			if !names[followee] {
				return nil, fmt.Errorf("user %q follows unknown user %q", u.Username, followee)
			}
			if followee == u.Username {
				return nil, fmt.Errorf("user %q cannot follow themselves", u.Username)
			}
		}
	}
	for i, c := range f.Campaigns {
		if c.Title == "" {
			return nil, fmt.Errorf("campaign %d: title is required", i)
		}
		if !names[c.Creator] {
			return nil, fmt.Errorf("campaign %q has unknown creator %q", c.Title, c.Creator)
		}
		for _, member := range c.Members {
			if !names[member] {
				return nil, fmt.Errorf("campaign %q has unknown member %q", c.Title, member)
			}
		}
	}

	return &f, nil
}

// ApplyFixtures creates the users, follow edges and campaigns declared in the
// fixture file. All accounts get the standard seeded password.
func (s *Seeder) ApplyFixtures(f *FixtureFile) error {
	byName := make(map[string]*models.User, len(f.Users))

	for _, fixture := range f.Users {
		fixture := fixture
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = fixture.Username
			if fixture.Email != "" {
				u.Email = fixture.Email
			} else {
				u.Email = fmt.Sprintf("%s@example.com", fixture.Username)
			}
			u.Bio = fixture.Bio
			if fixture.Avatar != "" {
				u.Avatar = fixture.Avatar
			}
			u.IsAdmin = fixture.Admin
		})
		if err != nil {
			return fmt.Errorf("create fixture user %q: %w", fixture.Username, err)
		}
		byName[fixture.Username] = user
	}

	for _, fixture := range f.Users {
		for _, followee := range fixture.Follows {
			if err := s.factory.CreateFollow(byName[fixture.Username], byName[followee]); err != nil && !isDuplicateKey(err) {
				return fmt.Errorf("create fixture follow %s->%s: %w", fixture.Username, followee, err)
			}
		}
	}

	for _, fixture := range f.Campaigns {
		fixture := fixture
		campaign, err := s.factory.CreateCampaign(byName[fixture.Creator], func(c *models.Campaign) {
			c.Title = fixture.Title
			c.Category = fixture.Category
			c.Description = fixture.Description
		})
		if err != nil {
			return fmt.Errorf("create fixture campaign %q: %w", fixture.Title, err)
		}
		for _, member := range fixture.Members {
			if err := s.factory.AddCampaignMember(campaign, byName[member]); err != nil {
				return fmt.Errorf("add fixture member %q to %q: %w", member, fixture.Title, err)
			}
		}
	}

	return nil
}
