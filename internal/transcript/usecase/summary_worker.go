package usecase

import (
	"context"
	"log"
	"strings"
	"sync"

	"amurex-backend/internal/transcript/repository"
	"amurex-backend/pkg/ai"
)

const (
	summarySystemPrompt = "You summarize meeting transcripts. Reply with a SUMMARY section followed by an ACTION ITEMS section listing concrete follow-ups, one per line."
	maxTranscriptInput  = 12000
)

// SummaryJob represents a job to generate an AI summary for a transcript
type SummaryJob struct {
	UserID    string
	MeetingID string
	Title     string
	RawText   string
}

// SummaryWorkerService handles background transcript summarization
type SummaryWorkerService struct {
	transcriptRepo repository.TranscriptRepository
	chat           ai.ChatService
	jobQueue       chan SummaryJob
	workerWg       sync.WaitGroup
	workerCount    int
	started        bool
	mu             sync.Mutex
}

// NewSummaryWorkerService creates a new summary worker service
func NewSummaryWorkerService(transcriptRepo repository.TranscriptRepository, chat ai.ChatService, workerCount int) *SummaryWorkerService {
	if workerCount <= 0 {
		workerCount = 3
	}

	return &SummaryWorkerService{
		transcriptRepo: transcriptRepo,
		chat:           chat,
		jobQueue:       make(chan SummaryJob, 500),
		workerCount:    workerCount,
	}
}

// Start starts the summary workers
func (s *SummaryWorkerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[SummaryWorker] Started %d workers", s.workerCount)
}

// Stop stops all workers gracefully
func (s *SummaryWorkerService) Stop() {
	close(s.jobQueue)
	s.workerWg.Wait()
	log.Println("[SummaryWorker] All workers stopped")
}

// worker processes summary jobs from the queue
func (s *SummaryWorkerService) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.processJob(job)
	}

	log.Printf("[SummaryWorker] Worker %d stopped", id)
}

// processJob summarizes a single transcript
func (s *SummaryWorkerService) processJob(job SummaryJob) {
	if s.chat == nil {
		return
	}

	// Skip transcripts already summarized since queueing
	existing, err := s.transcriptRepo.GetByMeetingID(job.UserID, job.MeetingID)
	if err != nil {
		log.Printf("[SummaryWorker] Lookup failed for meeting %s: %v", job.MeetingID, err)
		return
	}
	if existing == nil {
		return
	}
	if existing.Summary != "" {
		return
	}

	text := job.RawText
	if len(text) > maxTranscriptInput {
		text = text[:maxTranscriptInput]
	}

	ctx := context.Background()
	response, err := s.chat.Complete(ctx, summarySystemPrompt, "Meeting: "+job.Title+"\n\n"+text)
	if err != nil {
		log.Printf("[SummaryWorker] AI error for meeting %s: %v", job.MeetingID, err)
		return
	}

	summary, actionItems := splitSummary(response)
	if summary == "" {
		log.Printf("[SummaryWorker] Empty summary for meeting %s", job.MeetingID)
		return
	}

	if err := s.transcriptRepo.SaveSummary(job.UserID, job.MeetingID, summary, actionItems); err != nil {
		log.Printf("[SummaryWorker] Save error for meeting %s: %v", job.MeetingID, err)
		return
	}

	log.Printf("[SummaryWorker] Summarized meeting %s", job.MeetingID)
}

// QueueJob adds a single job to the queue (non-blocking)
func (s *SummaryWorkerService) QueueJob(job SummaryJob) bool {
	select {
	case s.jobQueue <- job:
		return true
	default:
		return false // Queue full
	}
}

// splitSummary separates the model reply into its summary and action items
// sections. A reply without an action items heading becomes all summary.
func splitSummary(response string) (string, string) {
	upper := strings.ToUpper(response)
	idx := strings.Index(upper, "ACTION ITEMS")
	if idx < 0 {
		return cleanSection(response, "SUMMARY"), ""
	}

	summary := cleanSection(response[:idx], "SUMMARY")
	actionItems := cleanSection(response[idx:], "ACTION ITEMS")
	return summary, actionItems
}

func cleanSection(s, heading string) string {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, heading) {
		s = s[len(heading):]
		s = strings.TrimLeft(s, ":# \n\t")
	}
	return strings.TrimSpace(s)
}
