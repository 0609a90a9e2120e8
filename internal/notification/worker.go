package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"bedclock/internal/alarm"
	"bedclock/internal/model"
)

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

// Alert is an alarm that started ringing.
type Alert struct {
	Index       int
	Description string
	Track       alarm.Track
	At          time.Time
}

type payload struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Track int       `json:"track"`
	At    time.Time `json:"at"`
}

// WorkerPool fans ringing alarms out to every push subscription.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size),
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
	log.Printf("Worker %d started", id)
	for {
		select {
		case a := <-wp.jobs:
			log.Printf("Worker %d processing alarm %d", id, a.Index)
			wp.sendNotificationsForAlert(ctx, a)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a for delivery. It never blocks the caller; when every
// worker is busy and the queue is full the alert is dropped.
func (wp *WorkerPool) Dispatch(a Alert) bool {
	select {
	case wp.jobs <- a:
		return true
	default:
		log.Printf("Notification queue full, dropping alert for alarm %d", a.Index)
		return false
	}
}

func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, a Alert) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for alarm %d: %v", a.Index, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	body, err := json.Marshal(payload{
		Title: "Alarm",
		Body:  a.Description,
		Track: int(a.Track),
		At:    a.At,
	})
	if err != nil {
		log.Printf("Error encoding notification for alarm %d: %v", a.Index, err)
		return
	}

	log.Printf("Sending %d notifications for alarm %d", len(subscriptions), a.Index)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, body)
	}
}

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
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode >= 400:
		log.Printf("Push service rejected notification to %s with status %d", sub.Endpoint, resp.StatusCode)
	}
}
