// internal/api/handlers.go
package api

import (
	"context"

	"service-directory/internal/analytics"
	"service-directory/internal/common/logger"
	"service-directory/internal/models"
	"service-directory/internal/search"
)

// SearchService runs validated search requests.
type SearchService interface {
	Search(ctx context.Context, req *search.Request) (*search.Response, error)
}

// OrganisationStore reads single organisations.
type OrganisationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Organisation, error)
}

// TaxonomyStore reads keywords, countries, and the home page grouping.
type TaxonomyStore interface {
	ListKeywords(ctx context.Context, categoryName string) ([]models.Keyword, error)
	HomePageGroups(ctx context.Context) ([]models.CategoryKeywordGroup, error)
	GetCountryByISOCode(ctx context.Context, isoCode string) (*models.Country, error)
}

// FeedbackStore persists reports and ratings.
type FeedbackStore interface {
	InsertReport(ctx context.Context, report *models.IncorrectInformationReport) error
	InsertRating(ctx context.Context, rating *models.Rating) error
}

// SMSService delivers one SMS, reporting acceptance.
type SMSService interface {
	Send(ctx context.Context, cellNumber, message string) bool
}

// EventTracker reports usage events.
type EventTracker interface {
	TrackEvent(ctx context.Context, event analytics.Event)
}

// Handlers bundles the API's collaborators.
type Handlers struct {
	search   SearchService
	orgs     OrganisationStore
	taxonomy TaxonomyStore
	feedback FeedbackStore
	sms      SMSService
	tracker  EventTracker
	log      logger.Logger
}

func NewHandlers(
	searchSvc SearchService,
	orgs OrganisationStore,
	taxonomy TaxonomyStore,
	feedback FeedbackStore,
	sms SMSService,
	tracker EventTracker,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		search:   searchSvc,
		orgs:     orgs,
		taxonomy: taxonomy,
		feedback: feedback,
		sms:      sms,
		tracker:  tracker,
		log:      log,
	}
}

// track reports an event without blocking or outliving cancellation rules:
// the hit continues after the response is written but still times out on its
// own HTTP client deadline.
func (h *Handlers) track(ctx context.Context, event analytics.Event) {
	go h.tracker.TrackEvent(context.WithoutCancel(ctx), event)
}
