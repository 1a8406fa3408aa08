package publishers

import (
	"time"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
)

// Event is the payload published for each newly seen card.
type Event struct {
	CardID      string      `json:"card_id"`
	QueryID     string      `json:"query_id"`
	QueryName   string      `json:"query_name"`
	Card        domain.Card `json:"card"`
	CollectedAt time.Time   `json:"collected_at"`
}

// NewEvent constructs an Event for the given query + card.
func NewEvent(queryID, queryName string, card domain.Card) Event {
	return Event{
		CardID:      card.ID(),
		QueryID:     queryID,
		QueryName:   queryName,
		Card:        card,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to broker messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"query_id": e.QueryID,
		"card_id":  e.CardID,
		"set_name": e.Card.SetName,
	}
}
