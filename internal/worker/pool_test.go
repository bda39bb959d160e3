package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizforge-backend/internal/config"
	"quizforge-backend/internal/services"
)

func TestPool_DrainsEmailQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	email := services.NewEmailService(&config.Config{Env: "development"})

	job := services.EmailJob{To: "gopher@example.com", Kind: services.EmailKindVerification, Code: "123456"}
	payload, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := client.LPush(context.Background(), services.EmailQueueKey, payload).Err(); err != nil {
		t.Fatalf("LPush failed: %v", err)
	}

	pool := NewPool(client, email, 1)
	pool.Start()
	defer pool.Stop()

	deadline := time.After(2 * time.Second)
	for {
		n, err := client.LLen(context.Background(), services.EmailQueueKey).Result()
		if err != nil {
			t.Fatalf("LLen failed: %v", err)
		}
		if n == 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("Queue not drained, %d jobs left", n)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
