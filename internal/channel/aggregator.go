package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream-api/internal/subscription"
	"github.com/clipstream/clipstream-api/internal/user"
)

var ErrChannelNotFound = errors.New("channel not found")

// Profile is the public projection of a channel, including the graph-derived
// counts and the viewer-relative subscription flag
type Profile struct {
	FullName          string  `json:"fullName"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	AvatarURL         string  `json:"avatar"`
	CoverImageURL     *string `json:"coverImage,omitempty"`
	SubscribersCount  int     `json:"subscribersCount"`
	SubscribedToCount int     `json:"subscribedToCount"`
	IsSubscribed      bool    `json:"isSubscribed"`
}

// Aggregator computes channel profiles from the user store and the
// subscription relation
type Aggregator struct {
	users         user.Repository
	subscriptions subscription.Repository
}

func NewAggregator(users user.Repository, subscriptions subscription.Repository) *Aggregator {
	return &Aggregator{users: users, subscriptions: subscriptions}
}

// GetChannelProfile resolves a channel by public username and derives its
// subscriber/subscribed-to counts plus the viewer's subscription flag.
// Three indexed lookups against the subscription relation, O(degree) each;
// semantically a left outer join with post-hoc field derivation.
func (a *Aggregator) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*Profile, error) {
	ch, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to look up channel: %w", err)
	}

	subscribers, err := a.subscriptions.CountByChannel(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}

	subscribedTo, err := a.subscriptions.CountBySubscriber(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribed-to channels: %w", err)
	}

	isSubscribed, err := a.subscriptions.IsSubscribed(ctx, viewerID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check viewer subscription: %w", err)
	}

	return &Profile{
		FullName:          ch.FullName,
		Username:          ch.Username,
		Email:             ch.Email,
		AvatarURL:         ch.AvatarURL,
		CoverImageURL:     ch.CoverImageURL,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// Subscribe creates the viewer -> channel edge, resolving the channel by
// username first
func (a *Aggregator) Subscribe(ctx context.Context, username string, viewerID uuid.UUID) error {
	ch, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to look up channel: %w", err)
	}

	return a.subscriptions.Subscribe(ctx, viewerID, ch.ID)
}

// Unsubscribe removes the viewer -> channel edge
func (a *Aggregator) Unsubscribe(ctx context.Context, username string, viewerID uuid.UUID) error {
	ch, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to look up channel: %w", err)
	}

	return a.subscriptions.Unsubscribe(ctx, viewerID, ch.ID)
}
