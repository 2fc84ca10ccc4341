// Command main runs the database seeder for Campfire.
package main

import (
	"flag"
	"log"

	"campfire/internal/config"
	"campfire/internal/database"
	"campfire/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of public feed posts to create")
	campaignPosts := flag.Int("campaign-posts", 10, "Number of posts per built-in campaign")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a specific seeder preset (e.g., MegaPopulated)")
	fixtures := flag.String("fixtures", "", "Path to a YAML fixture file (overrides random generation)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring other flags)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run seeder
	s := seed.NewSeeder(db, seed.Options{})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	switch {
	case *fixtures != "":
		f, err := seed.LoadFixtures(*fixtures)
		if err != nil {
			log.Fatalf("❌ Fixture loading failed: %v", err)
		}
		if err := s.ApplyFixtures(f); err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
	case *preset != "":
		if err := s.ApplyPreset(*preset); err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	default:
		users, err := s.SeedSocialMesh(*numUsers)
		if err != nil {
			log.Fatalf("❌ User seeding failed: %v", err)
		}
		if _, err := s.SeedEngagement(users, *numPosts); err != nil {
			log.Fatalf("❌ Engagement seeding failed: %v", err)
		}
		if err := s.SeedCampaigns(users, *campaignPosts); err != nil {
			log.Fatalf("❌ Campaign seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}
