package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/repository"
)

var seedNames = []string{"Ava", "Liam", "Mia", "Noah", "Zoe", "Ethan", "Ivy", "Lucas", "Nora", "Owen"}

// seed creates n completed demo profiles around San Francisco. Every user
// likes the next one and the first two are matched and have a short chat.
func seed(ctx context.Context, store repository.Store, n int) ([]*domain.User, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 users, got %d", n)
	}

	users := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		phone := fmt.Sprintf("+1415555%04d", 1000+i)
		u := domain.NewMinimalUser(&phone, nil, false)

		name := seedNames[i%len(seedNames)]
		gender, sex, interested := "woman", "female", "men"
		if i%2 == 1 {
			gender, sex, interested = "man", "male", "women"
		}
		dob := fmt.Sprintf("%d-%02d-15", 1990+i%10, 1+i%12)
		job := "Designer"
		lat := 37.7749 + (rand.Float64()-0.5)*0.2
		lon := -122.4194 + (rand.Float64()-0.5)*0.2

		patch := &domain.ProfilePatch{
			FirstName:    &name,
			DOB:          &dob,
			Gender:       &gender,
			Sex:          &sex,
			InterestedIn: &interested,
			JobTitle:     &job,
			Pictures:     &[]string{fmt.Sprintf("https://picsum.photos/seed/grape%d/600/800", i)},
			Latitude:     &lat,
			Longitude:    &lon,
		}

		if err := store.Users().Create(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", phone, err)
		}
		u, err := store.Users().ApplyPatch(ctx, u.ID, patch, true)
		if err != nil {
			return nil, fmt.Errorf("failed to update user %s: %w", phone, err)
		}
		users = append(users, u)
	}

	for i := 0; i+1 < len(users); i++ {
		if err := store.Likes().Create(ctx, &domain.Like{LikerID: users[i].ID, LikedID: users[i+1].ID}); err != nil {
			return nil, fmt.Errorf("failed to create like: %w", err)
		}
	}

	a, b := users[0], users[1]
	if err := store.Likes().Create(ctx, &domain.Like{LikerID: b.ID, LikedID: a.ID, IsSuperLike: true}); err != nil {
		return nil, fmt.Errorf("failed to create like: %w", err)
	}
	if _, _, err := store.Matches().CreateIfAbsent(ctx, a.ID, b.ID); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	for _, m := range []*domain.Message{
		{SenderID: a.ID, ReceiverID: b.ID, Content: "Hey! Loved your pictures."},
		{SenderID: b.ID, ReceiverID: a.ID, Content: "Thanks! Coffee this weekend?"},
	} {
		if err := store.Messages().Create(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to create message: %w", err)
		}
	}

	return users, nil
}
