package repository

import (
	"errors"
	"testing"

	emaildomain "amurex-backend/internal/email/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSchemaDriftError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"missing category column",
			errors.New(`ERROR: column "category" of relation "emails" does not exist (SQLSTATE 42703)`),
			true,
		},
		{
			"missing is_categorized column",
			errors.New(`ERROR: column "is_categorized" of relation "emails" does not exist (SQLSTATE 42703)`),
			true,
		},
		{
			"other missing column",
			errors.New(`ERROR: column "thread_id" of relation "emails" does not exist (SQLSTATE 42703)`),
			false,
		},
		{
			"unique violation",
			errors.New(`ERROR: duplicate key value violates unique constraint "idx_emails_user_message" (SQLSTATE 23505)`),
			false,
		},
		{
			"connection failure mentioning category",
			errors.New(`dial tcp: connection refused while writing category`),
			false,
		},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSchemaDriftError(tt.err))
		})
	}
}

func driftError() error {
	return errors.New(`ERROR: column "category" of relation "emails" does not exist (SQLSTATE 42703)`)
}

func TestPersistNewRetriesOnceWithoutCategoryFields(t *testing.T) {
	category := "work"
	email := &emaildomain.Email{
		UserID:        "u1",
		MessageID:     "m1",
		Category:      &category,
		IsCategorized: true,
	}

	var degradedCalls int
	var degradedRow *emaildomain.Email
	result := persistNew(email,
		func(*emaildomain.Email) error { return driftError() },
		func(e *emaildomain.Email) error {
			degradedCalls++
			degradedRow = e
			return nil
		})

	assert.Equal(t, emaildomain.StatusInsertedDegraded, result.Status)
	require.Equal(t, 1, degradedCalls)
	require.NotNil(t, degradedRow)
	assert.Nil(t, degradedRow.Category, "retry payload must not carry the category")
	assert.False(t, degradedRow.IsCategorized)
	assert.NotNil(t, email.Category, "the caller's record keeps its classification")
}

func TestPersistNewDoesNotRetryOtherFailures(t *testing.T) {
	insertErr := errors.New(`ERROR: duplicate key value violates unique constraint "idx_emails_user_message" (SQLSTATE 23505)`)

	var degradedCalls int
	result := persistNew(&emaildomain.Email{UserID: "u1", MessageID: "m1"},
		func(*emaildomain.Email) error { return insertErr },
		func(*emaildomain.Email) error { degradedCalls++; return nil })

	assert.Equal(t, emaildomain.StatusError, result.Status)
	assert.Equal(t, insertErr, result.Err)
	assert.Equal(t, 0, degradedCalls)
}

func TestPersistNewRetryFailureIsTerminal(t *testing.T) {
	var degradedCalls int
	result := persistNew(&emaildomain.Email{UserID: "u1", MessageID: "m1"},
		func(*emaildomain.Email) error { return driftError() },
		func(*emaildomain.Email) error { degradedCalls++; return driftError() })

	assert.Equal(t, emaildomain.StatusError, result.Status)
	assert.Equal(t, 1, degradedCalls, "the degraded retry runs exactly once")
}
