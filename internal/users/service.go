// Package users manages accounts and announces account activity on the
// user_events queue. Authentication and token issuance live elsewhere.
package users

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type Service struct {
	users store.UserStore
	bus   broker.Publisher
}

func NewService(users store.UserStore, bus broker.Publisher) *Service {
	return &Service{
		users: users,
		bus:   bus,
	}
}

func (s *Service) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	if username == "" {
		return nil, models.Validationf("username is required")
	}
	if password == "" {
		return nil, models.Validationf("password is required")
	}
	if email == "" {
		return nil, models.Validationf("email is required")
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if err := s.publish(ctx, event.NewUserRegistered(user.ID)); err != nil {
		log.Printf("⚠️ Failed to publish User Registered for %s: %v", user.ID, err)
	}

	return user, nil
}

// UpdateProfile updates the fields that are present; blanks are left alone.
func (s *Service) UpdateProfile(ctx context.Context, id, username, email string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if err := s.publish(ctx, event.NewUserProfileUpdated(user.ID)); err != nil {
		log.Printf("⚠️ Failed to publish User Profile Updated for %s: %v", user.ID, err)
	}

	return user, nil
}

// HandleUserRegistered and HandleUserProfileUpdated observe the service's
// own queue; downstream consumers hang projections off these.
func (s *Service) HandleUserRegistered(ctx context.Context, env event.Envelope) broker.Action {
	var registered event.UserRegistered
	if err := env.Bind(&registered); err != nil {
		log.Printf("❌ Failed to parse User Registered event: %v", err)
		return broker.Drop
	}
	log.Printf("📥 User registered: %s", registered.UserID)
	return broker.Ack
}

func (s *Service) HandleUserProfileUpdated(ctx context.Context, env event.Envelope) broker.Action {
	var updated event.UserProfileUpdated
	if err := env.Bind(&updated); err != nil {
		log.Printf("❌ Failed to parse User Profile Updated event: %v", err)
		return broker.Drop
	}
	log.Printf("📥 User profile updated: %s", updated.UserID)
	return broker.Ack
}

func (s *Service) publish(ctx context.Context, payload any) error {
	body, err := event.Encode(payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, event.QueueUserEvents, body)
}
