// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"campfire/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	// SkipBcrypt stores plaintext passwords instead of bcrypt hashes. Dev
	// fast mode only; the login path will reject these accounts.
	SkipBcrypt bool
	// DryRun builds entities with synthetic IDs and skips all DB writes.
	DryRun bool
	// MaxDays is how far back generated timestamps are spread (default 90).
	MaxDays int
	// BatchSize controls post insert chunking (default 100).
	BatchSize int
}

// Seeder orchestrates data generation on top of a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll truncates every seeded table. Postgres only.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE chat_messages, campaign_members, campaigns, comments, likes, attachments, posts, follows, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// SeedSocialMesh creates `count` users and a random follow mesh between
// them. Each user follows roughly a fifth of the others; edges are always
// between distinct users.
func (s *Seeder) SeedSocialMesh(count int) ([]models.User, error) {
	log.Printf("🌱 Seeding %d users...", count)

	users := make([]models.User, 0, count)

	// Always include a few well-known accounts for manual testing
	if count >= 3 {
		for _, name := range []string{"ember", "ash", "test"} {
			user, err := s.factory.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.Bio = "One of the OGs."
				u.Avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", name)
			})
			if err != nil {
				log.Printf("Failed to create base user %s: %v", name, err)
				continue
			}
			users = append(users, *user)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, *user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	log.Printf("✓ %d users created", len(users))

	if s.opts.DryRun || len(users) < 2 {
		return users, nil
	}

	// Random follow mesh
	edges := 0
	for i := range users {
		for j := range users {
			if i == j || s.factory.rng.Float32() >= 0.2 {
				continue
			}
			if err := s.factory.CreateFollow(&users[i], &users[j]); err != nil {
				if isDuplicateKey(err) {
					continue
				}
				return users, fmt.Errorf("failed to create follow: %w", err)
			}
			edges++
		}
	}
	log.Printf("✓ %d follow edges created", edges)

	return users, nil
}

// SeedEngagement creates `count` public feed posts across the given users,
// then sprinkles likes and comments on them. Likes are real rows; counts are
// derived at read time, so nothing here writes a counter.
func (s *Seeder) SeedEngagement(users []models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, errors.New("no users to seed posts for")
	}
	log.Printf("🌱 Seeding %d posts...", count)

	batchSize := s.opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	posts := make([]*models.Post, 0, count)
	batch := make([]*models.Post, 0, batchSize)
	for i := 0; i < count; i++ {
		user := users[s.factory.rng.Intn(len(users))]
		batch = append(batch, s.factory.BuildPost(&user))
		if len(batch) == batchSize {
			if err := s.factory.CreatePostsBatch(batch); err != nil {
				return nil, fmt.Errorf("failed to create posts: %w", err)
			}
			posts = append(posts, batch...)
			batch = batch[:0]
		}
	}
	if err := s.factory.CreatePostsBatch(batch); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	posts = append(posts, batch...)
	log.Printf("✓ %d posts created", len(posts))

	if s.opts.DryRun {
		return posts, nil
	}

	likes, comments := 0, 0
	for _, post := range posts {
		for _, user := range users {
			if s.factory.rng.Float32() < 0.1 && user.ID != post.UserID {
				if err := s.factory.CreateLike(&user, post); err != nil {
					if isDuplicateKey(err) {
						continue
					}
					return posts, fmt.Errorf("failed to create like: %w", err)
				}
				likes++
			}
		}
		for c := s.factory.rng.Intn(4); c > 0; c-- {
			user := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateComment(&user, post); err != nil {
				return posts, fmt.Errorf("failed to create comment: %w", err)
			}
			comments++
		}
	}
	log.Printf("✓ %d likes, %d comments created", likes, comments)

	return posts, nil
}

// SeedCampaigns ensures the built-in campaigns exist, enrolls random users
// into them, and fills each with campaign posts and chat history.
func (s *Seeder) SeedCampaigns(users []models.User, postsPerCampaign int) error {
	if len(users) == 0 {
		return errors.New("no users to seed campaigns for")
	}

	campaigns, err := BuiltIn(s.db, users[0].ID)
	if err != nil {
		return fmt.Errorf("failed to seed built-in campaigns: %w", err)
	}
	log.Printf("✓ %d campaigns available", len(campaigns))

	for i := range campaigns {
		campaign := &campaigns[i]

		// enroll roughly a third of users into each campaign
		members := []models.User{}
		for _, user := range users {
			if user.ID != campaign.CreatorID && s.factory.rng.Float32() >= 0.33 {
				continue
			}
			if memberErr := s.factory.AddCampaignMember(campaign, &user); memberErr != nil {
				return fmt.Errorf("failed to add member: %w", memberErr)
			}
			members = append(members, user)
		}
		if len(members) == 0 {
			members = users[:1]
		}

		for p := 0; p < postsPerCampaign; p++ {
			author := members[s.factory.rng.Intn(len(members))]
			if _, postErr := s.factory.CreatePost(&author, func(post *models.Post) {
				post.CampaignID = &campaign.ID
			}); postErr != nil {
				return fmt.Errorf("failed to create campaign post: %w", postErr)
			}
		}

		chatLen := s.factory.rng.Intn(30) + 5
		for m := 0; m < chatLen; m++ {
			sender := members[s.factory.rng.Intn(len(members))]
			if _, msgErr := s.factory.CreateChatMessage(campaign, &sender); msgErr != nil {
				return fmt.Errorf("failed to create chat message: %w", msgErr)
			}
		}
	}
	log.Printf("✓ campaigns populated with members, posts and chat")

	return nil
}

// ApplyPreset runs a named seeding preset.
func (s *Seeder) ApplyPreset(name string) error {
	switch name {
	case "MegaPopulated":
		users, err := s.SeedSocialMesh(500)
		if err != nil {
			return err
		}
		if _, err := s.SeedEngagement(users, 5000); err != nil {
			return err
		}
		return s.SeedCampaigns(users, 40)
	case "Minimal":
		users, err := s.SeedSocialMesh(5)
		if err != nil {
			return err
		}
		if _, err := s.SeedEngagement(users, 20); err != nil {
			return err
		}
		return s.SeedCampaigns(users, 2)
	default:
		return fmt.Errorf("unknown preset: %s", name)
	}
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
