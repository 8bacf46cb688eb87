package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SundayYogurt/visa_admin/internal/dto"
)

// DecisionFeed decodes review decision events from the queue and hands them to sink.
type DecisionFeed struct {
	sink func(dto.ReviewDecisionEvent)
	log  *slog.Logger
}

func NewDecisionFeed(sink func(dto.ReviewDecisionEvent), log *slog.Logger) *DecisionFeed {
	if log == nil {
		log = slog.Default()
	}
	return &DecisionFeed{sink: sink, log: log}
}

func (h *DecisionFeed) HandleMessage(message string) error {
	var event dto.ReviewDecisionEvent
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		h.log.Warn("invalid decision event payload", "payload", message)
		return fmt.Errorf("decode decision event: %w", err)
	}
	if event.Action == "" || event.ApplicationID == 0 {
		return fmt.Errorf("decision event %q: missing action or application id", event.EventID)
	}
	h.log.Debug("decision event received", "action", event.Action, "application_id", event.ApplicationID)
	h.sink(event)
	return nil
}
