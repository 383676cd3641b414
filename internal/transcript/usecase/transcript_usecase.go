package usecase

import (
	"fmt"
	"log"
	"strings"

	transcriptdomain "amurex-backend/internal/transcript/domain"
	"amurex-backend/internal/transcript/repository"
)

// TranscriptUsecase stores uploaded transcripts and hands them to the
// background summarizer.
type TranscriptUsecase struct {
	transcriptRepo repository.TranscriptRepository
	worker         *SummaryWorkerService
}

func NewTranscriptUsecase(transcriptRepo repository.TranscriptRepository, worker *SummaryWorkerService) *TranscriptUsecase {
	return &TranscriptUsecase{
		transcriptRepo: transcriptRepo,
		worker:         worker,
	}
}

// Upload stores a transcript and queues it for summarization. The summary
// arrives asynchronously; the response carries the stored record as is.
func (u *TranscriptUsecase) Upload(userID, meetingID, title, rawText string) (*transcriptdomain.Transcript, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("transcript text is empty")
	}
	if meetingID == "" {
		return nil, fmt.Errorf("meeting id is required")
	}
	if title == "" {
		title = "Untitled meeting"
	}

	t := &transcriptdomain.Transcript{
		UserID:    userID,
		MeetingID: meetingID,
		Title:     title,
		RawText:   rawText,
	}
	if err := u.transcriptRepo.Upsert(t); err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}

	if u.worker != nil {
		queued := u.worker.QueueJob(SummaryJob{
			UserID:    userID,
			MeetingID: meetingID,
			Title:     title,
			RawText:   rawText,
		})
		if !queued {
			// Queue is full; the transcript is stored and can be
			// re-queued by a later upload.
			log.Printf("[Transcript] Summary queue full, skipping meeting %s", meetingID)
		}
	}

	return t, nil
}

// Get returns one transcript by meeting id
func (u *TranscriptUsecase) Get(userID, meetingID string) (*transcriptdomain.Transcript, error) {
	return u.transcriptRepo.GetByMeetingID(userID, meetingID)
}

// List returns a page of the user's transcripts
func (u *TranscriptUsecase) List(userID string, limit, offset int) ([]*transcriptdomain.Transcript, error) {
	return u.transcriptRepo.ListByUser(userID, limit, offset)
}
