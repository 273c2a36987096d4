package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeOfferExpire is the task type for offer expiry fires.
	TypeOfferExpire = "offer:expire"

	// DispatchQueue is the asynq queue carrying expiry tasks.
	DispatchQueue = "dispatch"
)

// OfferExpirePayload is the expiry task body.
type OfferExpirePayload struct {
	OfferID string `json:"offerId"`
}

// offerTaskID derives the asynq task id from the offer id, so a duplicate
// schedule for the same offer is rejected by the queue.
func offerTaskID(offerID string) string {
	return TypeOfferExpire + ":" + offerID
}

// NewOfferExpireTask builds the delayed task that fires an offer's expiry.
func NewOfferExpireTask(offerID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(OfferExpirePayload{OfferID: offerID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOfferExpire, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(offerTaskID(offerID)),
		asynq.Queue(DispatchQueue),
	}
	return task, opts, nil
}
