package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Trust state conflicts.
var (
	ErrUserBlocked     = shared.Conflict("user_already_blocked", "user is already blocked")
	ErrUserNotBlocked  = shared.Conflict("user_not_blocked", "user is not blocked")
	ErrShopBlocked     = shared.Conflict("shop_already_blocked", "shop is already blocked")
	ErrShopNotBlocked  = shared.Conflict("shop_not_blocked", "shop is not blocked")
	ErrAlreadyVerified = shared.Conflict("user_already_verified", "user is already verified")
	ErrShopVerified    = shared.Conflict("shop_already_verified", "shop is already verified")
	ErrShopRejected    = shared.Conflict("shop_already_rejected", "shop verification is already rejected")
	ErrUserDeleted     = shared.Conflict("user_deleted", "user has been deleted")
	ErrShopDeleted     = shared.Conflict("shop_deleted", "shop has been deleted")
)

// Service runs the trust state machine: warnings and strikes accumulate
// inside one transaction with their counter, and crossing the threshold
// blocks the account in the same transaction.
type Service struct {
	repo             Repository
	logger           *slog.Logger
	warningThreshold int
	strikeThreshold  int
}

// NewService constructs a Service. Thresholds below 1 fall back to 3.
func NewService(repo Repository, logger *slog.Logger, warningThreshold, strikeThreshold int) *Service {
	if warningThreshold < 1 {
		warningThreshold = 3
	}
	if strikeThreshold < 1 {
		strikeThreshold = 3
	}
	return &Service{repo: repo, logger: logger, warningThreshold: warningThreshold, strikeThreshold: strikeThreshold}
}

// transact runs fn in one transaction, wrapping unclassified store errors
// so callers can tell a rolled-back operation from a domain conflict.
func (s *Service) transact(ctx context.Context, op string, fn func(context.Context, Repository) error) error {
	if err := s.repo.WithTx(ctx, fn); err != nil {
		if shared.KindOf(err) != "" {
			return err
		}
		return shared.TransactionFailed(op, err)
	}
	return nil
}

// IssueWarning records a warning against the user and escalates to a block
// when the warning count reaches the threshold. The warning row, the counter
// bump, the block and the audit entries commit or roll back together.
func (s *Service) IssueWarning(ctx context.Context, userID int64, reason, severity string, actorID int64, expiresAt *time.Time) (WarningResult, error) {
	if severity == "" {
		severity = SeverityLow
	}
	var result WarningResult
	err := s.transact(ctx, "issue warning", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetUserState(ctx, userID)
		if err != nil {
			return err
		}
		if state.DeletedAt != nil {
			return ErrUserDeleted
		}

		warning, err := tx.InsertWarning(ctx, Warning{UserID: userID, Reason: reason, Severity: severity, IssuedBy: actorID, ExpiresAt: expiresAt})
		if err != nil {
			return err
		}
		count, err := tx.IncrementWarningCount(ctx, userID)
		if err != nil {
			return err
		}
		result = WarningResult{Warning: warning, WarningCount: count}

		if err := tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "warn_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     map[string]any{"reason": reason, "severity": severity, "warning_count": count},
		}); err != nil {
			return err
		}

		if count >= s.warningThreshold && !state.IsBlocked {
			blockReason := fmt.Sprintf("Automatically blocked after receiving %d warnings", s.warningThreshold)
			if err := tx.SetUserBlocked(ctx, userID, blockReason); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, shared.AuditLog{
				ActorID:  actorID,
				Action:   "block_user",
				Entity:   shared.EntityUser,
				EntityID: strconv.FormatInt(userID, 10),
				Meta:     map[string]any{"reason": blockReason, "automatic": true},
			}); err != nil {
				return err
			}
			result.AutoBlocked = true
		}
		return nil
	})
	if err != nil {
		return WarningResult{}, err
	}
	if result.AutoBlocked && s.logger != nil {
		s.logger.Info("user auto-blocked",
			slog.Int64("user_id", userID),
			slog.Int("warning_count", result.WarningCount))
	}
	return result, nil
}

// IssueStrike records a strike against the shop, mirroring the warning flow.
func (s *Service) IssueStrike(ctx context.Context, shopID int64, reason, severity string, actorID int64, expiresAt *time.Time) (StrikeResult, error) {
	if severity == "" {
		severity = StrikeSeverityWarning
	}
	var result StrikeResult
	err := s.transact(ctx, "issue strike", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.DeletedAt != nil {
			return ErrShopDeleted
		}

		strike, err := tx.InsertStrike(ctx, Strike{ShopID: shopID, Reason: reason, Severity: severity, IssuedBy: actorID, ExpiresAt: expiresAt})
		if err != nil {
			return err
		}
		count, err := tx.IncrementStrikeCount(ctx, shopID)
		if err != nil {
			return err
		}
		result = StrikeResult{Strike: strike, StrikeCount: count}

		if err := tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "strike_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta: map[string]any{
				"reason":       fmt.Sprintf("Strike %d/%d issued: %s", count, s.strikeThreshold, reason),
				"severity":     severity,
				"strike_count": count,
			},
		}); err != nil {
			return err
		}

		if count >= s.strikeThreshold && !state.IsBlocked {
			blockReason := fmt.Sprintf("Shop automatically blocked after receiving %d strikes", s.strikeThreshold)
			if err := tx.SetShopBlocked(ctx, shopID, blockReason); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, shared.AuditLog{
				ActorID:  actorID,
				Action:   "block_shop",
				Entity:   shared.EntityShop,
				EntityID: strconv.FormatInt(shopID, 10),
				Meta:     map[string]any{"reason": blockReason, "automatic": true},
			}); err != nil {
				return err
			}
			result.AutoBlocked = true
		}
		return nil
	})
	if err != nil {
		return StrikeResult{}, err
	}
	if result.AutoBlocked && s.logger != nil {
		s.logger.Info("shop auto-blocked",
			slog.Int64("shop_id", shopID),
			slog.Int("strike_count", result.StrikeCount))
	}
	return result, nil
}

// BlockUser blocks a user manually.
func (s *Service) BlockUser(ctx context.Context, userID int64, reason string, actorID int64) error {
	if reason == "" {
		reason = "blocked by administrator"
	}
	return s.transact(ctx, "block user", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetUserState(ctx, userID)
		if err != nil {
			return err
		}
		if state.IsBlocked {
			return ErrUserBlocked
		}
		if err := tx.SetUserBlocked(ctx, userID, reason); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "block_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     map[string]any{"reason": reason, "automatic": false},
		})
	})
}

// UnblockUser lifts a block and resets the warning counter, so the user
// starts the escalation ladder from zero again.
func (s *Service) UnblockUser(ctx context.Context, userID int64, actorID int64) error {
	return s.transact(ctx, "unblock user", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetUserState(ctx, userID)
		if err != nil {
			return err
		}
		if !state.IsBlocked {
			return ErrUserNotBlocked
		}
		if err := tx.ClearUserBlocked(ctx, userID); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "unblock_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     map[string]any{"previous_warning_count": state.WarningCount},
		})
	})
}

// BlockShop blocks a shop manually.
func (s *Service) BlockShop(ctx context.Context, shopID int64, reason string, actorID int64) error {
	if reason == "" {
		reason = "blocked by administrator"
	}
	return s.transact(ctx, "block shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.IsBlocked {
			return ErrShopBlocked
		}
		if err := tx.SetShopBlocked(ctx, shopID, reason); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "block_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta:     map[string]any{"reason": reason, "automatic": false},
		})
	})
}

// UnblockShop lifts a shop block and resets the strike counter.
func (s *Service) UnblockShop(ctx context.Context, shopID int64, actorID int64) error {
	return s.transact(ctx, "unblock shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if !state.IsBlocked {
			return ErrShopNotBlocked
		}
		if err := tx.ClearShopBlocked(ctx, shopID); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "unblock_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta:     map[string]any{"previous_strike_count": state.StrikeCount},
		})
	})
}

// VerifyUser marks a user as verified.
func (s *Service) VerifyUser(ctx context.Context, userID int64, actorID int64) error {
	return s.transact(ctx, "verify user", func(ctx context.Context, tx Repository) error {
		if _, err := tx.GetUserState(ctx, userID); err != nil {
			return err
		}
		changed, err := tx.SetUserVerified(ctx, userID)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyVerified
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "verify_user",
			Entity:   shared.EntityUser,
			EntityID: strconv.FormatInt(userID, 10),
		})
	})
}

// VerifyShop approves a shop's verification review.
func (s *Service) VerifyShop(ctx context.Context, shopID int64, actorID int64) error {
	return s.transact(ctx, "verify shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.VerificationStatus == VerificationVerified {
			return ErrShopVerified
		}
		if err := tx.SetShopVerification(ctx, shopID, VerificationVerified, ""); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "verify_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
		})
	})
}

// RejectShop fails a shop's verification review, recording the reason.
func (s *Service) RejectShop(ctx context.Context, shopID int64, reason string, actorID int64) error {
	if reason == "" {
		reason = "Shop verification rejected"
	}
	return s.transact(ctx, "reject shop", func(ctx context.Context, tx Repository) error {
		state, err := tx.GetShopState(ctx, shopID)
		if err != nil {
			return err
		}
		if state.VerificationStatus == VerificationRejected {
			return ErrShopRejected
		}
		if err := tx.SetShopVerification(ctx, shopID, VerificationRejected, reason); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "reject_shop",
			Entity:   shared.EntityShop,
			EntityID: strconv.FormatInt(shopID, 10),
			Meta:     map[string]any{"reason": reason},
		})
	})
}

// UserState returns the moderation view of a user.
func (s *Service) UserState(ctx context.Context, userID int64) (UserState, error) {
	return s.repo.GetUserState(ctx, userID)
}

// ShopState returns the moderation view of a shop.
func (s *Service) ShopState(ctx context.Context, shopID int64) (ShopState, error) {
	return s.repo.GetShopState(ctx, shopID)
}

// Warnings lists a user's warning history, newest first.
func (s *Service) Warnings(ctx context.Context, userID int64) ([]Warning, error) {
	if _, err := s.repo.GetUserState(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListWarnings(ctx, userID)
}

// Strikes lists a shop's strike history, newest first.
func (s *Service) Strikes(ctx context.Context, shopID int64) ([]Strike, error) {
	if _, err := s.repo.GetShopState(ctx, shopID); err != nil {
		return nil, err
	}
	return s.repo.ListStrikes(ctx, shopID)
}

// SweepExpired re-derives the counters for unblocked accounts from the
// warnings and strikes still active at the given instant. Expired records
// stay on file as history; blocks stand until lifted by an admin.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	err := s.transact(ctx, "moderation sweep", func(ctx context.Context, tx Repository) error {
		var err error
		if result.WarningsExpired, err = tx.CountExpiredWarnings(ctx, now); err != nil {
			return err
		}
		if result.StrikesExpired, err = tx.CountExpiredStrikes(ctx, now); err != nil {
			return err
		}
		if result.UsersReconciled, err = tx.ReconcileWarningCounts(ctx, now); err != nil {
			return err
		}
		result.ShopsReconciled, err = tx.ReconcileStrikeCounts(ctx, now)
		return err
	})
	if err != nil {
		return SweepResult{}, err
	}
	return result, nil
}
