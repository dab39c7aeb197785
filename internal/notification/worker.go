package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"trade-ledger-backend/internal/model"
)

// NoticeKind says which ledger transition a notice reports.
type NoticeKind string

const (
	NoticeSold          NoticeKind = "sold"
	NoticeDelivered     NoticeKind = "delivered"
	NoticeBulkDelivered NoticeKind = "bulk_delivered"
)

// Notice describes a committed ledger transition.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Item    string     `json:"item,omitempty"`
	Count   int        `json:"count"`
	Station string     `json:"station"`
	At      time.Time  `json:"at"`
}

// Message renders the notice as a short human-readable line.
func (n Notice) Message() string {
	switch n.Kind {
	case NoticeSold:
		return fmt.Sprintf("Sold %d %s at %s", n.Count, n.Item, n.Station)
	case NoticeDelivered:
		return fmt.Sprintf("Delivered %d %s to %s", n.Count, n.Item, n.Station)
	case NoticeBulkDelivered:
		return fmt.Sprintf("Unloaded %d open purchases at %s", n.Count, n.Station)
	}
	return string(n.Kind)
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Notice, size*16),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case notice := <-wp.jobs:
			wp.broadcast(ctx, notice)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a notice. When the queue is full the notice is dropped;
// ingestion never waits on push delivery.
func (wp *WorkerPool) Dispatch(notice Notice) {
	select {
	case wp.jobs <- notice:
	default:
		log.Warn().Str("kind", string(notice.Kind)).Msg("notification queue full; dropping notice")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Notice {
	return wp.jobs
}

// broadcast sends the notice to every stored subscription.
func (wp *WorkerPool) broadcast(ctx context.Context, notice Notice) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch push subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(struct {
		Notice
		Message string `json:"message"`
	}{notice, notice.Message()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode notice")
		return
	}

	log.Debug().Int("subscriptions", len(subscriptions)).Str("kind", string(notice.Kind)).Msg("sending notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired; deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
