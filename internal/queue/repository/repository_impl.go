package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/queue/domain"
	pkgdb "github.com/leaseline/leaseline/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) domain.Repository {
	return &repo{genID: genID}
}

func (r *repo) Enqueue(ctx context.Context, db *gorm.DB, event *domain.InboundEvent) (bool, error) {
	err := db.WithContext(ctx).Create(event).Error
	if err == nil {
		return true, nil
	}
	if pkgdb.IsDuplicateKeyErr(err) {
		return false, nil
	}
	return false, err
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, lockToken string, limit int, now time.Time, visibility time.Duration) ([]domain.InboundEvent, error) {
	staleBefore := now.Add(-visibility)

	var candidates []domain.InboundEvent
	err := db.WithContext(ctx).
		Where("(status = ? AND available_at <= ?) OR (status = ? AND locked_at <= ?)",
			domain.StatusPending, now, domain.StatusInflight, staleBefore).
		Order("available_at asc").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// claim each candidate with a conditional update so concurrent pollers
	// never double-claim; losing a row here is fine, the winner has it
	claimed := make([]domain.InboundEvent, 0, len(candidates))
	for _, candidate := range candidates {
		res := db.WithContext(ctx).
			Model(&domain.InboundEvent{}).
			Where("id = ? AND status = ? AND ((? = ? AND available_at <= ?) OR (? = ? AND locked_at <= ?))",
				candidate.ID, candidate.Status,
				candidate.Status, domain.StatusPending, now,
				candidate.Status, domain.StatusInflight, staleBefore).
			Updates(map[string]any{
				"status":     domain.StatusInflight,
				"lock_token": lockToken,
				"locked_at":  now,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		candidate.Status = domain.StatusInflight
		candidate.LockToken = &lockToken
		candidate.LockedAt = &now
		candidate.Attempts++
		candidate.UpdatedAt = now
		claimed = append(claimed, candidate)
	}
	return claimed, nil
}

func (r *repo) Done(ctx context.Context, db *gorm.DB, eventID snowflake.ID, lockToken string) error {
	return db.WithContext(ctx).
		Model(&domain.InboundEvent{}).
		Where("id = ? AND lock_token = ?", eventID, lockToken).
		Updates(map[string]any{
			"status":     domain.StatusDone,
			"lock_token": nil,
			"locked_at":  nil,
		}).Error
}

func (r *repo) Release(ctx context.Context, db *gorm.DB, eventID snowflake.ID, lockToken string, backoff time.Duration, lastError string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.InboundEvent{}).
		Where("id = ? AND lock_token = ?", eventID, lockToken).
		Updates(map[string]any{
			"status":       domain.StatusPending,
			"lock_token":   nil,
			"locked_at":    nil,
			"available_at": now.Add(backoff),
			"last_error":   lastError,
			"updated_at":   now,
		}).Error
}

func (r *repo) Bury(ctx context.Context, db *gorm.DB, event *domain.InboundEvent, lockToken, reason string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.InboundEvent{}).
			Where("id = ? AND lock_token = ?", event.ID, lockToken).
			Updates(map[string]any{
				"status":     domain.StatusDead,
				"lock_token": nil,
				"locked_at":  nil,
				"last_error": reason,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the claim, the reclaiming worker owns the event now
			return nil
		}
		letter := domain.DeadLetter{
			ID:        r.genID.Generate(),
			TenantID:  event.TenantID,
			MessageID: event.MessageID,
			Reason:    reason,
			Payload:   event.Payload,
			CreatedAt: now,
		}
		return tx.Create(&letter).Error
	})
}

func (r *repo) CountDead(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.DeadLetter{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}
