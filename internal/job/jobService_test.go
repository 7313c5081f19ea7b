package job

import (
	"context"
	"testing"

	"github.com/akolanti/DocChat/internal/data/store"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
)

func TestEnqueue(t *testing.T) {
	ctx := context.Background()
	svc := InitJobService(ServiceConfig{
		JobChannel:   make(chan jobModel.Job, 20),
		JobStore:     store.InitInMemoryJobStore(),
		MessageStore: store.InitMessageStore(),
	})

	t.Run("queued job is saved before the send", func(t *testing.T) {
		svc.Enqueue(ctx, jobModel.Job{Id: "q1", JobType: jobModel.JobTypeQuery, Status: jobModel.JobStatusRunning})
		saved, found := svc.JobStore.GetJob(ctx, "q1")
		if !found || saved.Status != jobModel.JobStatusQueued {
			t.Fatalf("saved = %+v, found = %v", saved, found)
		}
		if got := <-svc.JobChannel; got.Id != "q1" {
			t.Errorf("channel job = %s", got.Id)
		}
	})

	t.Run("ingestion always asks for a worker", func(t *testing.T) {
		if !svc.Enqueue(ctx, jobModel.Job{Id: "i1", JobType: jobModel.JobTypeIngest}) {
			t.Error("expected a dispatcher signal")
		}
		<-svc.JobChannel
		<-svc.DispatcherChannel
	})

	t.Run("queries signal every tenth job", func(t *testing.T) {
		signals := 0
		for i := 0; i < 18; i++ {
			if svc.Enqueue(ctx, jobModel.Job{Id: "q", JobType: jobModel.JobTypeQuery}) {
				signals++
				<-svc.DispatcherChannel
			}
			<-svc.JobChannel
		}
		// two jobs were queued above, so the 10th and 20th land in this loop
		if signals != 2 {
			t.Errorf("signals = %d, want 2", signals)
		}
	})
}
