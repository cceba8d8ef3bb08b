package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/clipstream/clipstream-api/internal/database"
)

var (
	// ErrSelfSubscription rejects edges from a user to themselves
	ErrSelfSubscription = errors.New("cannot subscribe to your own channel")
	ErrNotSubscribed    = errors.New("not subscribed to this channel")
)

// Repository manages the directed subscription relation
// (subscriber follows channel). Counts and the membership test are each a
// single indexed query, so cost scales with the node's degree rather than the
// size of the whole relation.
type Repository interface {
	Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	CountByChannel(ctx context.Context, channelID uuid.UUID) (int, error)
	CountBySubscriber(ctx context.Context, subscriberID uuid.UUID) (int, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
}

// BunRepository persists subscription edges in Postgres
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Subscribe creates the edge subscriber -> channel. Subscribing twice is a
// no-op; subscribing to yourself is rejected.
func (r *BunRepository) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	if subscriberID == channelID {
		return ErrSelfSubscription
	}

	edge := &database.Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}

	_, err := r.db.NewInsert().
		Model(edge).
		On("CONFLICT (subscriber_id, channel_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "violates foreign key constraint") {
			return fmt.Errorf("channel does not exist: %w", err)
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Unsubscribe removes the edge subscriber -> channel
func (r *BunRepository) Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Subscription)(nil)).
		Where("subscriber_id = ?", subscriberID).
		Where("channel_id = ?", channelID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotSubscribed
	}

	return nil
}

// CountByChannel counts incoming edges: the channel's subscribers
func (r *BunRepository) CountByChannel(ctx context.Context, channelID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Subscription)(nil)).
		Where("channel_id = ?", channelID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}

	return count, nil
}

// CountBySubscriber counts outgoing edges: channels this user follows
func (r *BunRepository) CountBySubscriber(ctx context.Context, subscriberID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.Subscription)(nil)).
		Where("subscriber_id = ?", subscriberID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribed-to channels: %w", err)
	}

	return count, nil
}

// IsSubscribed reports whether the edge subscriber -> channel exists
func (r *BunRepository) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Subscription)(nil)).
		Where("subscriber_id = ?", subscriberID).
		Where("channel_id = ?", channelID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}

	return exists, nil
}
