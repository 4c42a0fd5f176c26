// internal/search/formatter.go
package search

import (
	"context"
	"fmt"
	"math"

	"service-directory/internal/common/logger"
	"service-directory/internal/common/metrics"
	"service-directory/internal/models"
)

// OrganisationResolver hydrates engine hits from the system of record.
type OrganisationResolver interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Organisation, error)
}

// Formatter turns raw hits into presentable organisations.
type Formatter struct {
	resolver OrganisationResolver
	log      logger.Logger
}

func NewFormatter(resolver OrganisationResolver, log logger.Logger) *Formatter {
	return &Formatter{resolver: resolver, log: log}
}

// Format resolves hits against the database, drops orphans and attaches a
// human-readable distance. Hit order is preserved: the engine ranked the
// results and the database lookup must not reorder them.
func (f *Formatter) Format(ctx context.Context, hits []Hit) ([]*models.Organisation, error) {
	if len(hits) == 0 {
		return []*models.Organisation{}, nil
	}

	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}

	byID, err := f.resolver.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	organisations := make([]*models.Organisation, 0, len(hits))
	for _, hit := range hits {
		org, ok := byID[hit.ID]
		if !ok {
			// The index has a document the database no longer has. Skip it
			// rather than failing the page, but make the divergence visible
			// so the index gets rebuilt.
			f.log.Warn("search index references a missing organisation, index and database have diverged", map[string]interface{}{
				"organisation_id": hit.ID,
				"model_type":      hit.ModelType,
			})
			metrics.OrphanedHitsTotal.Inc()
			continue
		}

		if hit.DistanceKm != nil && !math.IsInf(*hit.DistanceKm, 1) {
			org.Distance = fmt.Sprintf("%.2fkm", *hit.DistanceKm)
		}
		organisations = append(organisations, org)
	}

	return organisations, nil
}
