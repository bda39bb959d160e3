package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"quizforge-backend/internal/services"
)

// Pool drains the email delivery queue with a fixed set of worker
// goroutines. Jobs are retried once; a second failure drops the job, since
// verification codes can always be re-requested.
type Pool struct {
	redis       *redis.Client
	email       *services.EmailService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, email *services.EmailService, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		email:       email,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d email worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.EmailQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job services.EmailJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse email job: %v", id, err)
			continue
		}

		if err := p.email.Deliver(job); err != nil {
			log.Printf("Worker %d: email to %s failed: %v, retrying once", id, job.To, err)
			if err := p.email.Deliver(job); err != nil {
				log.Printf("Worker %d: email to %s failed permanently: %v", id, job.To, err)
			}
		}
	}
}
