package services

import (
	"context"

	"awaken/internal/cache"
	"awaken/internal/models"
	"awaken/internal/sage"
)

// Services is everything the HTTP layer needs.
type Services struct {
	*DbServices
	Sage     SageService
	Topics   TopicService
	Analysis AnalysisService
}

// NewServices layers the model-backed services over db. invoker serves the
// topic and analysis requests; agg serves sage requests. Journal writes made
// through the returned Services drop the writer's history-based topics.
func NewServices(db *DbServices, agg SageAggregator, invoker sage.Invoker, store cache.Cache) *Services {
	topics := NewTopicService(invoker, db.entries, store)
	scoped := *db
	scoped.Journal = topicAwareJournal{JournalService: db.Journal, topics: topics}
	return &Services{
		DbServices: &scoped,
		Sage:       NewSageService(agg, db.Settings),
		Topics:     topics,
		Analysis:   NewAnalysisService(invoker, db.entries),
	}
}

// topicAwareJournal invalidates cached history topics after any write that
// changes what the topics are based on.
type topicAwareJournal struct {
	JournalService
	topics TopicService
}

func (j topicAwareJournal) Create(ctx context.Context, userID uint, in CreateEntryInput) (*models.JournalEntry, error) {
	e, err := j.JournalService.Create(ctx, userID, in)
	if err == nil {
		j.topics.Invalidate(ctx, userID)
	}
	return e, err
}

func (j topicAwareJournal) Update(ctx context.Context, userID, id uint, in UpdateEntryInput) (*models.JournalEntry, error) {
	e, err := j.JournalService.Update(ctx, userID, id, in)
	if err == nil {
		j.topics.Invalidate(ctx, userID)
	}
	return e, err
}

func (j topicAwareJournal) Delete(ctx context.Context, userID, id uint) error {
	err := j.JournalService.Delete(ctx, userID, id)
	if err == nil {
		j.topics.Invalidate(ctx, userID)
	}
	return err
}
