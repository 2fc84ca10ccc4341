//go:build integration

package seed

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"campfire/internal/config"
	"campfire/internal/database"
	"campfire/internal/models"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	dbname := strings.TrimPrefix(u.Path, "/")
	cfg := &config.Config{
		DBHost:       host,
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       dbname,
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "auto",
	}
	return cfg, nil
}

func TestIntegration_SeedFullDataset(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("failed parse dsn: %v", err)
	}
	// connect and apply schema
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}

	seeder := NewSeeder(db, Options{SkipBcrypt: true, BatchSize: 50, MaxDays: 30})
	if err := seeder.ClearAll(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	users, err := seeder.SeedSocialMesh(10)
	if err != nil {
		t.Fatalf("SeedSocialMesh failed: %v", err)
	}
	if _, err := seeder.SeedEngagement(users, 50); err != nil {
		t.Fatalf("SeedEngagement failed: %v", err)
	}
	if err := seeder.SeedCampaigns(users, 5); err != nil {
		t.Fatalf("SeedCampaigns failed: %v", err)
	}

	var postCount int64
	if err = db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if postCount == 0 {
		t.Fatal("expected seeded posts, got 0")
	}

	var campaignCount int64
	if err = db.Model(&models.Campaign{}).Count(&campaignCount).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if campaignCount != int64(len(BuiltInCampaigns)) {
		t.Fatalf("expected %d campaigns, got %d", len(BuiltInCampaigns), campaignCount)
	}

	var chatCount int64
	if err = db.Model(&models.ChatMessage{}).Count(&chatCount).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if chatCount == 0 {
		t.Fatal("expected seeded chat messages, got 0")
	}
}
