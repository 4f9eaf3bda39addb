package moderation

import (
	"context"
	"strconv"
	"time"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Cascade conflicts.
var (
	ErrUserAlreadyDeleted = shared.Conflict("user_already_deleted", "user is already deleted")
	ErrUserNotDeleted     = shared.Conflict("user_not_deleted", "user is not deleted")
	ErrShopAlreadyDeleted = shared.Conflict("shop_already_deleted", "shop is already deleted")
	ErrShopNotDeleted     = shared.Conflict("shop_not_deleted", "shop is not deleted")
)

// SoftDeleteUser marks the user, their shops, each shop's catalog and posts,
// and the user's own posts and comments with one shared deletion stamp.
// Rows deleted in earlier operations keep their original stamp, so a later
// restore of this user will not resurrect them.
func (s *Service) SoftDeleteUser(ctx context.Context, userID int64, actorID int64) (CascadeResult, error) {
	var result CascadeResult
	err := s.transact(ctx, "delete user", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetUserState(ctx, userID)
		if err != nil {
			return err
		}
		if state.DeletedAt != nil {
			return ErrUserAlreadyDeleted
		}

		stamp := time.Now().UTC().Truncate(time.Microsecond)
		rows, err := tx.MarkUserDeleted(ctx, userID, stamp)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrUserAlreadyDeleted
		}

		shopIDs, err := tx.MarkShopsDeletedByOwner(ctx, userID, stamp)
		if err != nil {
			return err
		}
		dependents, err := tx.MarkShopDependentsDeleted(ctx, shopIDs, stamp)
		if err != nil {
			return err
		}
		content, err := tx.MarkUserContentDeleted(ctx, userID, stamp)
		if err != nil {
			return err
		}

		result = CascadeResult{ShopsAffected: len(shopIDs), DependentsAffected: dependents + content}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "delete_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
			Meta: map[string]any{
				"shops_deleted":      len(shopIDs),
				"dependents_deleted": dependents + content,
			},
			At: stamp,
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// RestoreUser reverses a user cascade. Only rows carrying the user's own
// deletion stamp come back; dependents deleted independently stay deleted.
func (s *Service) RestoreUser(ctx context.Context, userID int64, actorID int64) (CascadeResult, error) {
	var result CascadeResult
	err := s.transact(ctx, "restore user", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetUserState(ctx, userID)
		if err != nil {
			return err
		}
		if state.DeletedAt == nil {
			return ErrUserNotDeleted
		}
		stamp := *state.DeletedAt

		if _, err := tx.RestoreUserRow(ctx, userID); err != nil {
			return err
		}
		shopIDs, err := tx.RestoreShopsByOwner(ctx, userID, stamp)
		if err != nil {
			return err
		}
		dependents, err := tx.RestoreShopDependents(ctx, shopIDs, stamp)
		if err != nil {
			return err
		}
		content, err := tx.RestoreUserContent(ctx, userID, stamp)
		if err != nil {
			return err
		}

		result = CascadeResult{ShopsAffected: len(shopIDs), DependentsAffected: dependents + content}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "restore_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
			Meta: map[string]any{
				"shops_restored":      len(shopIDs),
				"dependents_restored": dependents + content,
			},
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// SoftDeleteShop marks one shop and its products, services and posts.
func (s *Service) SoftDeleteShop(ctx context.Context, shopID int64, actorID int64) (CascadeResult, error) {
	var result CascadeResult
	err := s.transact(ctx, "delete shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.DeletedAt != nil {
			return ErrShopAlreadyDeleted
		}

		stamp := time.Now().UTC().Truncate(time.Microsecond)
		rows, err := tx.MarkShopDeleted(ctx, shopID, stamp)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrShopAlreadyDeleted
		}
		dependents, err := tx.MarkShopDependentsDeleted(ctx, []int64{shopID}, stamp)
		if err != nil {
			return err
		}

		result = CascadeResult{ShopsAffected: 1, DependentsAffected: dependents}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "delete_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta:     map[string]any{"dependents_deleted": dependents},
			At:       stamp,
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// RestoreShop reverses a shop cascade using the shop's deletion stamp.
func (s *Service) RestoreShop(ctx context.Context, shopID int64, actorID int64) (CascadeResult, error) {
	var result CascadeResult
	err := s.transact(ctx, "restore shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.DeletedAt == nil {
			return ErrShopNotDeleted
		}
		stamp := *state.DeletedAt

		if _, err := tx.RestoreShopRow(ctx, shopID); err != nil {
			return err
		}
		dependents, err := tx.RestoreShopDependents(ctx, []int64{shopID}, stamp)
		if err != nil {
			return err
		}

		result = CascadeResult{ShopsAffected: 1, DependentsAffected: dependents}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "restore_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta:     map[string]any{"dependents_restored": dependents},
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}
