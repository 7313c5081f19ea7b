package googleEmbedding

import (
	"errors"
	"testing"

	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDoRetry(t *testing.T) {
	log := logger_i.NewLogger("test")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", status.Error(codes.ResourceExhausted, "quota"), true},
		{"unavailable", status.Error(codes.Unavailable, "down"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doRetry(tt.err, log); got != tt.want {
				t.Errorf("doRetry() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestDownloadAnswerFromClient(t *testing.T) {
	ok := &genai.InlinedEmbedContentResponse{
		Response: &genai.SingleEmbedContentResponse{Embedding: &genai.ContentEmbedding{Values: []float32{1, 2}}},
	}

	job := &genai.BatchJob{Dest: &genai.BatchJobDestination{InlinedEmbedContentResponses: []*genai.InlinedEmbedContentResponse{ok, ok}}}
	got, err := downloadAnswerFromClient(job, 2)
	if err != nil || len(got) != 2 || got[1][1] != 2 {
		t.Fatalf("got %v, %v", got, err)
	}

	if _, err := downloadAnswerFromClient(job, 3); err == nil {
		t.Error("short result set must fail")
	}

	job.Dest.InlinedEmbedContentResponses[1] = &genai.InlinedEmbedContentResponse{}
	if _, err := downloadAnswerFromClient(job, 2); err == nil {
		t.Error("failed entry must fail the batch")
	}

	if _, err := downloadAnswerFromClient(&genai.BatchJob{}, 1); err == nil {
		t.Error("missing destination must fail")
	}
}

func TestGetContent(t *testing.T) {
	contents := getContent([]string{"a", "b"})
	if len(contents) != 2 || contents[1].Parts[0].Text != "b" {
		t.Errorf("getContent() = %v", contents)
	}
}
