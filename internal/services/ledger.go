package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/sartoria/vetrina/internal/messaging"
	"github.com/sartoria/vetrina/pkg/models"
)

// InteractionLedgerService owns the append-only interaction ledger. Events
// are immutable once recorded; reads slice the ledger by actor, time window
// and kind for the recommendation strategies.
type InteractionLedgerService struct {
	db     DatabaseQuerier
	bus    *messaging.EventBus
	logger *logrus.Logger
}

func NewInteractionLedgerService(db DatabaseQuerier, bus *messaging.EventBus, logger *logrus.Logger) *InteractionLedgerService {
	return &InteractionLedgerService{
		db:     db,
		bus:    bus,
		logger: logger,
	}
}

// Record appends one event. The insert is the source of truth; the event
// bus publish afterwards is best-effort and never fails the call.
func (s *InteractionLedgerService) Record(ctx context.Context, actor models.Actor, productID, kind string) (*models.Interaction, error) {
	interaction := &models.Interaction{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		SessionID: actor.SessionID,
		ProductID: productID,
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO interactions (id, user_id, session_id, product_id, interaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		interaction.ID,
		interaction.UserID,
		interaction.SessionID,
		interaction.ProductID,
		interaction.Type,
		interaction.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	if err := s.bus.PublishInteraction(ctx, interaction); err != nil {
		s.logger.WithError(err).WithField("interaction_id", interaction.ID).
			Warn("Interaction recorded but not published")
	}

	s.logger.WithFields(logrus.Fields{
		"interaction_id":   interaction.ID,
		"product_id":       productID,
		"interaction_type": kind,
	}).Debug("Interaction recorded")

	return interaction, nil
}

// RecentInteractions returns the actor's events inside the window, newest
// first. An empty actor has no history by definition. limit <= 0 means
// unbounded.
func (s *InteractionLedgerService) RecentInteractions(ctx context.Context, actor models.Actor, window time.Duration, limit int) ([]models.Interaction, error) {
	if actor.Empty() {
		return nil, nil
	}

	query := `
		SELECT id, user_id, session_id, product_id, interaction_type, created_at
		FROM interactions
		WHERE ` + actorClause(actor) + ` AND created_at >= $2
		ORDER BY created_at DESC, id`
	args := []interface{}{actorKey(actor), time.Now().UTC().Add(-window)}

	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("interaction history query failed: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// RecentViews returns the actor's view events, newest first, with no time
// cutoff. Duplicate product ids are preserved; callers dedupe on first
// occurrence.
func (s *InteractionLedgerService) RecentViews(ctx context.Context, actor models.Actor, limit int) ([]models.Interaction, error) {
	if actor.Empty() {
		return nil, nil
	}

	query := `
		SELECT id, user_id, session_id, product_id, interaction_type, created_at
		FROM interactions
		WHERE ` + actorClause(actor) + ` AND interaction_type = $2
		ORDER BY created_at DESC, id`
	args := []interface{}{actorKey(actor), models.InteractionView}

	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("view history query failed: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// CountsByProduct aggregates event counts per product inside the window,
// most interacted first with product id breaking ties.
func (s *InteractionLedgerService) CountsByProduct(ctx context.Context, window time.Duration) ([]models.ProductCount, error) {
	query := `
		SELECT product_id, COUNT(*) AS interactions
		FROM interactions
		WHERE created_at >= $1
		GROUP BY product_id
		ORDER BY interactions DESC, product_id`

	rows, err := s.db.Query(ctx, query, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("interaction counts query failed: %w", err)
	}
	defer rows.Close()

	var counts []models.ProductCount
	for rows.Next() {
		var c models.ProductCount
		if err := rows.Scan(&c.ProductID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan interaction count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction count rows failed: %w", err)
	}
	return counts, nil
}

func actorClause(actor models.Actor) string {
	if actor.UserID != nil {
		return "user_id = $1"
	}
	return "session_id = $1"
}

func actorKey(actor models.Actor) interface{} {
	if actor.UserID != nil {
		return *actor.UserID
	}
	return *actor.SessionID
}

func scanInteractions(rows pgx.Rows) ([]models.Interaction, error) {
	var interactions []models.Interaction
	for rows.Next() {
		var in models.Interaction
		err := rows.Scan(&in.ID, &in.UserID, &in.SessionID, &in.ProductID, &in.Type, &in.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction rows failed: %w", err)
	}
	return interactions, nil
}
