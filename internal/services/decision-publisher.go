package services

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/google/uuid"
)

// DecisionPublisher announces review decisions once the store committed them.
// Only the backend publishes; clients learn about decisions from the feed.
// Failures are logged and never undo the decision.
type DecisionPublisher struct {
	producer interfaces.ProducerHandler
	now      func() time.Time
	log      *slog.Logger
}

func NewDecisionPublisher(producer interfaces.ProducerHandler, log *slog.Logger) *DecisionPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &DecisionPublisher{producer: producer, now: time.Now, log: log}
}

func (p *DecisionPublisher) publish(ev dto.ReviewDecisionEvent, by string) {
	if p == nil || p.producer == nil {
		return
	}
	ev.EventID = uuid.NewString()
	ev.DecidedBy = by
	ev.DecidedAt = p.now().UTC().Format(time.RFC3339)

	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("encode decision event", "err", err)
		return
	}
	key := []byte(strconv.FormatUint(uint64(ev.ApplicationID), 10))
	if err := p.producer.PublishMessage(key, value); err != nil {
		p.log.Warn("publish decision event", "action", ev.Action, "application_id", ev.ApplicationID, "err", err)
	}
}

func (p *DecisionPublisher) Approved(appID uint, by string) {
	p.publish(dto.ReviewDecisionEvent{
		Action:        dto.DecisionApproved,
		ApplicationID: appID,
		Status:        "approved",
	}, by)
}

func (p *DecisionPublisher) Rejected(appID uint, reason, by string) {
	p.publish(dto.ReviewDecisionEvent{
		Action:        dto.DecisionRejected,
		ApplicationID: appID,
		Status:        "rejected",
		Reason:        &reason,
	}, by)
}

func (p *DecisionPublisher) DocumentValidated(appID, docID uint, status, by string) {
	p.publish(dto.ReviewDecisionEvent{
		Action:        dto.DecisionDocumentValidated,
		ApplicationID: appID,
		DocumentID:    &docID,
		Status:        status,
	}, by)
}
