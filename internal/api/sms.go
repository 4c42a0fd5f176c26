// internal/api/sms.go
package api

import (
	"net/http"

	"service-directory/internal/analytics"
	"service-directory/internal/common/validation"
	"service-directory/internal/notify"
)

const smsSchema = `{
	"type": "object",
	"properties": {
		"cellNumber": {"type": "string", "pattern": "^\\+?[0-9]{9,15}$"},
		"organisationUrl": {"type": "string", "minLength": 1},
		"yourName": {"type": "string", "maxLength": 100}
	},
	"required": ["cellNumber", "organisationUrl"],
	"additionalProperties": false
}`

type smsResponse struct {
	Result bool `json:"result"`
}

// handleSendSMS serves POST /api/organisation/sms: texts an organisation
// link to a phone. Delivery problems surface as result:false, never as a
// request failure.
func (h *Handlers) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	document, verr := decodeJSONBody(r)
	if verr != nil {
		writeError(w, h.log, verr)
		return
	}
	if verr := validation.ValidateJSON(smsSchema, document); verr != nil {
		writeError(w, h.log, verr)
		return
	}

	cellNumber := document["cellNumber"].(string)
	link := document["organisationUrl"].(string)
	yourName, _ := document["yourName"].(string)

	message := notify.OrganisationLinkMessage(yourName, link)
	sent := h.sms.Send(r.Context(), cellNumber, message)

	// Track the share attempt regardless of delivery outcome; the label
	// distinguishes sharing with someone else from saving to your own phone.
	label := "save"
	if yourName != "" {
		label = "send"
	}
	h.track(r.Context(), analytics.Event{
		Category: "organisation",
		Action:   "share-sms",
		Label:    label,
		Page:     r.URL.Path,
	})

	writeJSON(w, http.StatusOK, smsResponse{Result: sent})
}
