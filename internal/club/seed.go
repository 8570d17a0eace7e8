package club

import (
	"context"
	"errors"
	"fmt"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/domain"
)

// SeedPassword is the password given to every seeded club.
const SeedPassword = "clubpass123"

// SeedClubs are the sample clubs created by Seed.
var SeedClubs = []domain.Registration{
	{
		Email:       "engineering@club.com",
		Name:        "Engineering Club",
		Description: "A club for students interested in all fields of engineering and technology.",
		Interests:   []string{"Technology", "Science", "Academic"},
	},
	{
		Email:       "sports@club.com",
		Name:        "Sports Club",
		Description: "Join us for various sports activities, tournaments, and fitness sessions.",
		Interests:   []string{"Sports", "Health"},
	},
	{
		Email:       "art@club.com",
		Name:        "Art Society",
		Description: "Express your creativity through various art forms and exhibitions.",
		Interests:   []string{"Arts", "Cultural"},
	},
	{
		Email:       "debate@club.com",
		Name:        "Debate Team",
		Description: "Enhance your public speaking and argumentation skills through competitive debates.",
		Interests:   []string{"Academic", "Social"},
	},
	{
		Email:       "environment@club.com",
		Name:        "Environmental Action",
		Description: "Working towards campus sustainability and environmental awareness.",
		Interests:   []string{"Environmental", "Social"},
	},
}

// Seed registers the sample clubs, skipping any whose email is taken.
// It returns the number of clubs created.
func Seed(ctx context.Context, accounts *account.Repo) (int, error) {
	created := 0
	for _, reg := range SeedClubs {
		reg.Password = SeedPassword
		_, err := accounts.Register(ctx, domain.RoleClub, reg)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed club %s: %w", reg.Name, err)
		}
		created++
	}
	return created, nil
}
