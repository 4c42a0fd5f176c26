// internal/models/organisation.go
package models

import "time"

// Organisation is a directory entry: a clinic or service provider tagged
// with categories and keywords and located at a point.
type Organisation struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	About              string     `json:"about,omitempty"`
	Address            string     `json:"address"`
	Telephone          string     `json:"telephone,omitempty"`
	EmergencyTelephone string     `json:"emergencyTelephone,omitempty"`
	Email              string     `json:"email,omitempty"`
	Web                string     `json:"web,omitempty"`
	VerifiedAs         string     `json:"verifiedAs,omitempty"`
	AgeRangeMin        *int       `json:"ageRangeMin,omitempty"`
	AgeRangeMax        *int       `json:"ageRangeMax,omitempty"`
	OpeningHours       string     `json:"openingHours,omitempty"`
	Country            Country    `json:"country"`
	Location           Point      `json:"location"`
	Categories         []Category `json:"categories,omitempty"`
	Keywords           []Keyword  `json:"keywords,omitempty"`
	FacilityCode       string     `json:"facilityCode,omitempty"`

	// Distance is a display string ("2.83km") attached by the result
	// formatter when the search was anchored at a point. Empty otherwise.
	Distance string `json:"distance,omitempty"`
}

// KeywordNames returns the keyword names in declaration order.
func (o *Organisation) KeywordNames() []string {
	names := make([]string, 0, len(o.Keywords))
	for _, kw := range o.Keywords {
		names = append(names, kw.Name)
	}
	return names
}

// OrganisationSummary is the search response shape.
type OrganisationSummary struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Keywords []string `json:"keywords"`
	Distance *string  `json:"distance"`
}

// Summarize converts an organisation into its search response form.
func (o *Organisation) Summarize() OrganisationSummary {
	summary := OrganisationSummary{
		ID:       o.ID,
		Name:     o.Name,
		Address:  o.Address,
		Keywords: o.KeywordNames(),
	}
	if o.Distance != "" {
		d := o.Distance
		summary.Distance = &d
	}
	return summary
}

// IncorrectInformationReport is end-user feedback flagging stale details.
type IncorrectInformationReport struct {
	ID             int64     `json:"id"`
	OrganisationID int64     `json:"organisationId"`
	ReportedAt     time.Time `json:"reportedAt"`
	ContactDetails *bool     `json:"contactDetails,omitempty"`
	Address        *bool     `json:"address,omitempty"`
	TradingHours   *bool     `json:"tradingHours,omitempty"`
	Other          *bool     `json:"other,omitempty"`
	OtherDetail    string    `json:"otherDetail,omitempty"`
}

// Rating values.
const (
	RatingPoor    = "poor"
	RatingAverage = "average"
	RatingGood    = "good"
)

// Rating is an end-user quality rating of an organisation.
type Rating struct {
	ID             int64     `json:"id"`
	OrganisationID int64     `json:"organisationId"`
	RatedAt        time.Time `json:"ratedAt"`
	Rating         string    `json:"rating"`
}
