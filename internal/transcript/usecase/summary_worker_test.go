package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	transcriptdomain "amurex-backend/internal/transcript/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriptRepo struct {
	mu     sync.Mutex
	stored map[string]*transcriptdomain.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{stored: make(map[string]*transcriptdomain.Transcript)}
}

func (r *fakeTranscriptRepo) key(userID, meetingID string) string { return userID + "/" + meetingID }

func (r *fakeTranscriptRepo) Upsert(t *transcriptdomain.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(t.UserID, t.MeetingID)
	if existing, ok := r.stored[k]; ok {
		existing.Title = t.Title
		existing.RawText = t.RawText
		existing.Summary = ""
		existing.ActionItems = ""
		*t = *existing
		return nil
	}
	t.ID = "t-" + t.MeetingID
	r.stored[k] = t
	return nil
}

func (r *fakeTranscriptRepo) GetByMeetingID(userID, meetingID string) (*transcriptdomain.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored[r.key(userID, meetingID)], nil
}

func (r *fakeTranscriptRepo) SaveSummary(userID, meetingID, summary, actionItems string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.stored[r.key(userID, meetingID)]
	if !ok {
		return errors.New("not found")
	}
	t.Summary = summary
	t.ActionItems = actionItems
	return nil
}

func (r *fakeTranscriptRepo) ListByUser(userID string, limit, offset int) ([]*transcriptdomain.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transcriptdomain.Transcript
	for _, t := range r.stored {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTranscriptRepo) DeleteByUser(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.stored {
		if t.UserID == userID {
			delete(r.stored, k)
		}
	}
	return nil
}

type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestSplitSummary(t *testing.T) {
	t.Run("both sections", func(t *testing.T) {
		summary, items := splitSummary("SUMMARY:\nWe agreed on the launch date.\n\nACTION ITEMS:\n- Ship the beta\n- Email the team")
		assert.Equal(t, "We agreed on the launch date.", summary)
		assert.Equal(t, "- Ship the beta\n- Email the team", items)
	})

	t.Run("no action items heading", func(t *testing.T) {
		summary, items := splitSummary("Just a plain recap of the call.")
		assert.Equal(t, "Just a plain recap of the call.", summary)
		assert.Equal(t, "", items)
	})

	t.Run("lowercase headings", func(t *testing.T) {
		summary, items := splitSummary("summary: short recap\naction items: follow up with legal")
		assert.Equal(t, "short recap", summary)
		assert.Equal(t, "follow up with legal", items)
	})
}

func TestProcessJobStoresSummary(t *testing.T) {
	repo := newFakeTranscriptRepo()
	require.NoError(t, repo.Upsert(&transcriptdomain.Transcript{
		UserID: "u1", MeetingID: "m1", Title: "Planning", RawText: "long transcript",
	}))

	chat := &fakeChat{reply: "SUMMARY: decisions made\nACTION ITEMS: book a room"}
	worker := NewSummaryWorkerService(repo, chat, 1)

	worker.processJob(SummaryJob{UserID: "u1", MeetingID: "m1", Title: "Planning", RawText: "long transcript"})

	stored, _ := repo.GetByMeetingID("u1", "m1")
	require.NotNil(t, stored)
	assert.Equal(t, "decisions made", stored.Summary)
	assert.Equal(t, "book a room", stored.ActionItems)
}

func TestProcessJobSkipsAlreadySummarized(t *testing.T) {
	repo := newFakeTranscriptRepo()
	tr := &transcriptdomain.Transcript{UserID: "u1", MeetingID: "m1", RawText: "text"}
	require.NoError(t, repo.Upsert(tr))
	require.NoError(t, repo.SaveSummary("u1", "m1", "done already", ""))

	chat := &fakeChat{reply: "SUMMARY: other"}
	worker := NewSummaryWorkerService(repo, chat, 1)

	worker.processJob(SummaryJob{UserID: "u1", MeetingID: "m1", RawText: "text"})

	assert.Equal(t, 0, chat.calls)
	stored, _ := repo.GetByMeetingID("u1", "m1")
	assert.Equal(t, "done already", stored.Summary)
}

func TestProcessJobModelFailureLeavesTranscript(t *testing.T) {
	repo := newFakeTranscriptRepo()
	require.NoError(t, repo.Upsert(&transcriptdomain.Transcript{UserID: "u1", MeetingID: "m1", RawText: "text"}))

	worker := NewSummaryWorkerService(repo, &fakeChat{err: errors.New("rate limited")}, 1)
	worker.processJob(SummaryJob{UserID: "u1", MeetingID: "m1", RawText: "text"})

	stored, _ := repo.GetByMeetingID("u1", "m1")
	require.NotNil(t, stored)
	assert.Equal(t, "", stored.Summary)
}

func TestUploadQueuesSummaryJob(t *testing.T) {
	repo := newFakeTranscriptRepo()
	worker := NewSummaryWorkerService(repo, &fakeChat{reply: "SUMMARY: ok"}, 1)
	uc := NewTranscriptUsecase(repo, worker)

	tr, err := uc.Upload("u1", "m1", "Standup", "we talked about things")

	require.NoError(t, err)
	assert.Equal(t, "m1", tr.MeetingID)
	assert.Len(t, worker.jobQueue, 1)
}

func TestUploadRejectsEmptyText(t *testing.T) {
	uc := NewTranscriptUsecase(newFakeTranscriptRepo(), nil)

	_, err := uc.Upload("u1", "m1", "Standup", "   ")

	assert.Error(t, err)
}

func TestReuploadClearsStaleSummary(t *testing.T) {
	repo := newFakeTranscriptRepo()
	uc := NewTranscriptUsecase(repo, nil)

	_, err := uc.Upload("u1", "m1", "Standup", "first version")
	require.NoError(t, err)
	require.NoError(t, repo.SaveSummary("u1", "m1", "old summary", ""))

	_, err = uc.Upload("u1", "m1", "Standup", "second version")
	require.NoError(t, err)

	stored, _ := repo.GetByMeetingID("u1", "m1")
	assert.Equal(t, "", stored.Summary, "re-upload invalidates the previous summary")
	assert.Equal(t, "second version", stored.RawText)
}
