package services

import (
	"context"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/store"
)

type RepairReport struct {
	RestoredFollows int   `json:"restoredFollows"`
	DeletedComments int64 `json:"deletedComments"`
}

// ConsistencyService repairs data written before follows and post deletion
// were transactional.
type ConsistencyService struct {
	store store.Store
}

func NewConsistencyService(s store.Store) *ConsistencyService {
	return &ConsistencyService{store: s}
}

// Repair adds the missing mirror of every one-sided follow edge and deletes
// comments whose post is gone.
func (s *ConsistencyService) Repair(ctx context.Context) (RepairReport, error) {
	var report RepairReport
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		edges, err := tx.ListAsymmetricFollows(ctx)
		if err != nil {
			return err
		}
		for _, e := range edges {
			if err := tx.AddFollowing(ctx, e.TargetID, e.UserID); err != nil {
				return err
			}
			logger.Get().Debug("Restored mirror follow",
				zap.String("user_id", e.TargetID),
				zap.String("target_id", e.UserID),
			)
		}
		report.RestoredFollows = len(edges)

		report.DeletedComments, err = tx.DeleteOrphanComments(ctx)
		return err
	})
	if err != nil {
		return RepairReport{}, err
	}
	return report, nil
}
