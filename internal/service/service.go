package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"firetechnics/site/internal/catalog"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/domain/task"
	"firetechnics/site/internal/queue"
	"firetechnics/site/internal/relay"
	"firetechnics/site/internal/repository"
)

// Inquiry archive statuses.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Service struct {
	store       *catalog.Store
	queue       queue.Queue
	relay       relay.Relay
	inquiries   repository.InquiryRepository
	minIdleTime time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewService wires the background work. queue and inquiries may be nil, in which
// case work runs inline and inquiries are not archived.
func NewService(
	store *catalog.Store,
	q queue.Queue,
	r relay.Relay,
	inquiries repository.InquiryRepository,
	minIdleTime int,
) *Service {
	idle := time.Duration(minIdleTime) * time.Second
	if idle <= 0 {
		idle = 2 * time.Minute
	}

	return &Service{
		store:       store,
		queue:       q,
		relay:       r,
		inquiries:   inquiries,
		minIdleTime: idle,
		maxAttempts: 5,
		now:         time.Now,
	}
}

// WarmCatalog loads the lists, levels and certificates of categories into the cache.
// An empty categories slice warms every category.
func (s *Service) WarmCatalog(ctx context.Context, categories []domain.Category, purge bool) error {
	if len(categories) == 0 {
		categories = domain.Categories
	}
	if purge {
		s.store.Purge()
	}

	start := s.now()
	errGroup, gctx := errgroup.WithContext(ctx)
	errGroup.SetLimit(4)

	var mutex sync.Mutex
	itemCount := 0

	for _, category := range categories {
		errGroup.Go(func() error {
			items, err := s.store.ListByCategory(gctx, category)
			if err != nil {
				log.Errorf("❌ Failed to warm category %s: %v", category, err)
				return err
			}

			if _, err := s.store.CertificatesFor(gctx, items...); err != nil {
				log.Warnf("⚠️ Certificates for %s not warmed: %v", category, err)
			}

			for _, item := range items {
				if _, err := s.store.ListSubLevels(gctx, item.ID); err != nil {
					log.Warnf("⚠️ Levels of %s not warmed: %v", item.ID, err)
				}
			}

			mutex.Lock()
			itemCount += len(items)
			mutex.Unlock()

			log.Infof("✅ Warmed %s: %d items", category, len(items))
			return nil
		})
	}

	errGroup.Go(func() error {
		if _, err := s.store.ListCertificates(gctx); err != nil {
			log.Warnf("⚠️ Certificate list not warmed: %v", err)
		}
		return nil
	})

	if err := errGroup.Wait(); err != nil {
		return fmt.Errorf("failed to warm catalog: %w", err)
	}

	log.Infof("🔥 Catalog warm-up finished: %d items in %v", itemCount, s.now().Sub(start).Round(time.Millisecond))
	return nil
}

// RequestWarmUp schedules a warm-up on the queue, or runs it inline without one.
func (s *Service) RequestWarmUp(ctx context.Context, reason string, purge bool) error {
	if s.queue == nil {
		return s.WarmCatalog(ctx, nil, purge)
	}

	if _, err := s.queue.AddTask(ctx, &task.WarmCatalogTask{Purge: purge, Reason: reason}); err != nil {
		return fmt.Errorf("failed to schedule warm-up: %w", err)
	}
	log.Infof("🗓️ Warm-up scheduled (%s)", reason)
	return nil
}

// SubmitInquiry validates a contact form submission and hands it to the relay,
// through the queue when one is configured.
func (s *Service) SubmitInquiry(ctx context.Context, inquiry domain.Inquiry) (domain.Inquiry, error) {
	inquiry.Normalize()
	if err := inquiry.Validate(); err != nil {
		return inquiry, err
	}
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	if inquiry.SubmittedAt.IsZero() {
		inquiry.SubmittedAt = s.now().UTC()
	}

	if s.queue == nil {
		return inquiry, s.deliver(ctx, &task.ContactInquiryTask{Inquiry: inquiry, Attempt: 1})
	}

	s.archive(ctx, &inquiry, StatusQueued)
	if _, err := s.queue.AddTask(ctx, &task.ContactInquiryTask{Inquiry: inquiry, Attempt: 1}); err != nil {
		log.Errorf("❌ Failed to queue inquiry %s, relaying inline: %v", inquiry.ID, err)
		return inquiry, s.deliver(ctx, &task.ContactInquiryTask{Inquiry: inquiry, Attempt: 1})
	}

	log.Infof("📨 Inquiry %s queued", inquiry.ID)
	return inquiry, nil
}

func (s *Service) archive(ctx context.Context, inquiry *domain.Inquiry, status string) {
	if s.inquiries == nil {
		return
	}
	if err := s.inquiries.SaveInquiry(ctx, inquiry, status); err != nil {
		log.Errorf("❌ Failed to archive inquiry %s: %v", inquiry.ID, err)
	}
}

// deliver sends one inquiry and records the outcome.
func (s *Service) deliver(ctx context.Context, t *task.ContactInquiryTask) error {
	if err := s.send(ctx, t); err != nil {
		return fmt.Errorf("failed to relay inquiry %s: %w", t.Inquiry.ID, err)
	}
	return nil
}

// send returns the relay error as is, so a retry records what the relay reported.
func (s *Service) send(ctx context.Context, t *task.ContactInquiryTask) error {
	if err := s.relay.Send(ctx, t.Inquiry); err != nil {
		s.archive(ctx, &t.Inquiry, StatusFailed)
		return err
	}
	s.archive(ctx, &t.Inquiry, StatusSent)
	return nil
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		<-ctx.Done()
		return nil
	}

	var wg sync.WaitGroup

	s.runWorkersForStream(ctx, &wg, max(1, numWorkers), s.queue.Stream(task.TypeContactInquiry), "inquiry")
	s.runWorkersForStream(ctx, &wg, 1, s.queue.Stream(task.TypeWarmCatalog), "warmup")

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	group := s.queue.Group()

	// Auto-claimer for this stream
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, group, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimedMessages), workerType)
					for _, msg := range claimedMessages {
						if err := s.processMessage(ctx, &msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, group, consumer, streamName)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
							time.Sleep(time.Second)
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, err := queue.TaskData(msg)
	if err != nil {
		return err
	}

	switch taskType {
	case task.TypeContactInquiry:
		inquiryTask, err := task.UnmarshalTask[*task.ContactInquiryTask](taskData)
		if err != nil {
			return fmt.Errorf("failed to unmarshal inquiry task data: %w", err)
		}

		if err := s.send(ctx, inquiryTask); err != nil {
			s.retryInquiry(ctx, inquiryTask, err)
		}

	case task.TypeWarmCatalog:
		warmTask, err := task.UnmarshalTask[*task.WarmCatalogTask](taskData)
		if err != nil {
			return fmt.Errorf("failed to unmarshal warm-up task data: %w", err)
		}

		if err := s.WarmCatalog(ctx, warmTask.Categories, warmTask.Purge); err != nil {
			log.Warnf("⚠️ Warm-up (%s) incomplete: %v", warmTask.Reason, err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, s.queue.Stream(taskType), s.queue.Group(), msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// retryInquiry requeues a failed delivery until maxAttempts is reached.
func (s *Service) retryInquiry(ctx context.Context, t *task.ContactInquiryTask, cause error) {
	if t.Attempt >= s.maxAttempts {
		log.Errorf("❌ Giving up on inquiry %s after %d attempts: %v", t.Inquiry.ID, t.Attempt, cause)
		return
	}

	next := &task.ContactInquiryTask{
		Inquiry: t.Inquiry,
		Attempt: t.Attempt + 1,
		Error:   cause.Error(),
	}
	if _, err := s.queue.AddTask(ctx, next); err != nil {
		log.Errorf("❌ Failed to requeue inquiry %s: %v", t.Inquiry.ID, err)
		return
	}
	log.Warnf("🔄 Inquiry %s failed, will retry (attempt %d): %v", t.Inquiry.ID, next.Attempt, cause)
}
