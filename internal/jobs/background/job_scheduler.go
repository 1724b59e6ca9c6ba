package background

import (
	"context"
	"log"
	"sync"
	"time"

	"stockmaster/internal/caching"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

const activityLogRetention = 90 * 24 * time.Hour

// JobScheduler runs the recurring maintenance work: sweeping expired
// subscriptions, nudging pending-claim tenants to refetch, and trimming
// the activity log.
type JobScheduler struct {
	scheduler        gocron.Scheduler
	subscriptionRepo repositories.SubscriptionRepository
	activityRepo     repositories.ActivityLogsRepository
	cacheSvc         caching.CacheService
	feed             realtime.Feed
	jobs             map[string]gocron.Job
	mu               sync.RWMutex
}

func NewJobScheduler(
	subscriptionRepo repositories.SubscriptionRepository,
	activityRepo repositories.ActivityLogsRepository,
	cacheSvc caching.CacheService,
	feed realtime.Feed,
) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:        scheduler,
		subscriptionRepo: subscriptionRepo,
		activityRepo:     activityRepo,
		cacheSvc:         cacheSvc,
		feed:             feed,
		jobs:             make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Expired subscription sweep - every 10 minutes
	expiryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(js.sweepExpiredSubscriptions, context.Background()),
		gocron.WithName("subscription-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create expiry sweep job: %v", err)
	} else {
		js.jobs["expiry-sweep"] = expiryJob
	}

	// Pending claim nudge - every minute while claims are open
	claimJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(js.nudgePendingClaims, context.Background()),
		gocron.WithName("pending-claim-nudge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create pending claim job: %v", err)
	} else {
		js.jobs["claim-nudge"] = claimJob
	}

	// Activity log retention trim - daily
	trimJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.trimActivityLogs, context.Background()),
		gocron.WithName("activity-log-trim"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create activity trim job: %v", err)
	} else {
		js.jobs["activity-trim"] = trimJob
	}
}

// sweepExpiredSubscriptions finds tenants whose paid term has lapsed and
// drops their cached state so the next session resolve re-evaluates them
// onto the free tier. Subscription rows are never rewritten here; expiry
// is derived at read time.
func (js *JobScheduler) sweepExpiredSubscriptions(ctx context.Context) {
	expired, err := js.subscriptionRepo.ListExpired(ctx, time.Now())
	if err != nil {
		log.Printf("WARN: expiry sweep failed: %v", err)
		return
	}
	for _, sub := range expired {
		if err := js.cacheSvc.InvalidateCompany(ctx, sub.CompanyID); err != nil {
			log.Printf("WARN: failed to invalidate cache for %s: %v", sub.CompanyID, err)
		}
		js.feed.Publish(ctx, realtime.TableSubscriptions, sub.CompanyID, "update")
	}
	if len(expired) > 0 {
		log.Printf("Expiry sweep flagged %d subscriptions", len(expired))
	}
}

// nudgePendingClaims republishes a change event for every tenant with an
// inactive claim on file, so paywall pollers that missed an event converge.
func (js *JobScheduler) nudgePendingClaims(ctx context.Context) {
	pending, err := js.subscriptionRepo.ListPendingClaims(ctx)
	if err != nil {
		log.Printf("WARN: pending claim scan failed: %v", err)
		return
	}
	for _, sub := range pending {
		js.feed.Publish(ctx, realtime.TableSubscriptions, sub.CompanyID, "update")
	}
}

func (js *JobScheduler) trimActivityLogs(ctx context.Context) {
	cutoff := time.Now().Add(-activityLogRetention)
	trimmed, err := js.activityRepo.TrimOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("WARN: activity log trim failed: %v", err)
		return
	}
	if trimmed > 0 {
		log.Printf("Trimmed %d activity log entries older than %s", trimmed, cutoff.Format(time.DateOnly))
	}
}
