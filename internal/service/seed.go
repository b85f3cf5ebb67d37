package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/friendconnect/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "password123"

type demoUser struct {
	name      string
	email     string
	age       int
	location  string
	bio       string
	interests []string
	color     string
}

var demoUsers = []demoUser{
	{
		name:      "Sarah Johnson",
		email:     "sarah@example.com",
		age:       25,
		location:  "New York",
		bio:       "Love traveling, photography, and meeting new people! Always up for an adventure.",
		interests: []string{"Travel", "Photography", "Music", "Art"},
		color:     "ec4899",
	},
	{
		name:      "Mike Chen",
		email:     "mike@example.com",
		age:       28,
		location:  "Los Angeles",
		bio:       "Tech enthusiast and coffee lover. Building the future one line of code at a time.",
		interests: []string{"Technology", "Coffee", "Gaming", "Fitness"},
		color:     "6366f1",
	},
}

// SeedDemoData creates the demo accounts and their opening conversation.
// It is idempotent: nothing is written if the first demo account exists.
func SeedDemoData(ctx context.Context, db domain.Database, bcryptCost int) error {
	users := db.Users()

	if _, err := users.GetByEmail(ctx, demoUsers[0].email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check demo user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	ids := make([]int64, 0, len(demoUsers))
	for _, d := range demoUsers {
		u := &domain.User{
			Name:         d.name,
			Email:        d.email,
			PasswordHash: string(hash),
			Age:          d.age,
			Location:     d.location,
			Bio:          d.bio,
			Interests:    d.interests,
			Avatar:       "https://via.placeholder.com/150/" + d.color + "/ffffff?text=" + d.name[:1],
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create demo user %s: %w", d.email, err)
		}
		ids = append(ids, u.ID)
	}

	conv, _, err := db.Conversations().FindOrCreate(ctx, ids[0], ids[1])
	if err != nil {
		return fmt.Errorf("create demo conversation: %w", err)
	}

	now := time.Now().UTC()
	opening := []domain.Message{
		{SenderID: ids[0], Text: "Hey! I saw we have similar interests in technology!", Timestamp: now.Add(-time.Hour)},
		{SenderID: ids[1], Text: "Hi Sarah! Yes, I love coding and coffee. What kind of tech are you into?", Timestamp: now.Add(-58 * time.Minute)},
	}
	for i := range opening {
		if err := db.Conversations().AppendMessage(ctx, conv.ID, &opening[i]); err != nil {
			return fmt.Errorf("append demo message: %w", err)
		}
	}
	return nil
}
