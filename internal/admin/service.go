package admin

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort records the reset after it commits.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator drops derived read models after the data underneath
// them is gone.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service performs the irreversible full data reset.
type Service struct {
	repo         RepositoryPort
	audit        AuditPort
	cache        CacheInvalidator
	passwordHash string
	now          func() time.Time
}

// NewService builds Service. passwordHash is a bcrypt hash; an empty hash
// disables the reset entirely. audit and cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache CacheInvalidator, passwordHash string) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, passwordHash: passwordHash, now: time.Now}
}

// ResetAllData purges every tenant table in one transaction after checking
// the password. The caller is expected to have double-confirmed the intent
// before invoking this.
func (s *Service) ResetAllData(ctx context.Context, password string) (ResetResult, error) {
	if s.passwordHash == "" {
		return ResetResult{}, ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return ResetResult{}, ErrBadPassword
	}

	var total int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, table := range purgeOrder {
			n, err := tx.Purge(ctx, table)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return ResetResult{}, err
	}

	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "admin.reset_all_data",
			Entity:   "tenant",
			EntityID: "all",
			Meta:     map[string]any{"rows_deleted": total},
			At:       s.now(),
		})
	}
	return ResetResult{
		Success: true,
		Message: fmt.Sprintf("all data deleted (%d rows)", total),
	}, nil
}
