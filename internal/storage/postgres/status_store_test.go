package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

func TestCreateRequestInsertsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStatusStoreWithPool(mock)

	now := time.Unix(1700000000, 0).UTC()
	rec := analyzer.AnalysisRecord{
		ID:          "req-1",
		URL:         "https://example.com",
		Email:       "user@example.com",
		SubmittedAt: now,
		Legs: []analyzer.LegRecord{
			{Kind: analyzer.TaskTextEmail, State: analyzer.LegQueued, UpdatedAt: now},
			{Kind: analyzer.TaskPDFEmail, State: analyzer.LegQueued, UpdatedAt: now},
		},
	}

	mock.ExpectExec("INSERT INTO analysis_requests").
		WithArgs(rec.ID, rec.URL, rec.Email, rec.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO delivery_legs").
		WithArgs(rec.ID, analyzer.TaskTextEmail, analyzer.LegQueued, "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO delivery_legs").
		WithArgs(rec.ID, analyzer.TaskPDFEmail, analyzer.LegQueued, "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateRequest(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLegNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStatusStoreWithPool(mock)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec("UPDATE delivery_legs").
		WithArgs(analyzer.LegSent, "", now, "missing", analyzer.TaskTextEmail).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateLeg(context.Background(), "missing", analyzer.TaskTextEmail, analyzer.LegSent, "", now)
	require.ErrorIs(t, err, analyzer.ErrRequestNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequestLoadsLegs(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStatusStoreWithPool(mock)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery("SELECT id, url, email, submitted_at").
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "url", "email", "submitted_at"}).
			AddRow("req-1", "https://example.com", "user@example.com", now))
	mock.ExpectQuery("SELECT kind, state, error_text, updated_at").
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows([]string{"kind", "state", "error_text", "updated_at"}).
			AddRow(analyzer.TaskTextEmail, analyzer.LegSent, "", now).
			AddRow(analyzer.TaskPDFEmail, analyzer.LegFailed, "smtp refused", now))

	rec, err := store.GetRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", rec.URL)
	require.Len(t, rec.Legs, 2)
	require.Equal(t, analyzer.LegFailed, rec.Legs[1].State)
	require.Equal(t, "smtp refused", rec.Legs[1].ErrorText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequestNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStatusStoreWithPool(mock)

	mock.ExpectQuery("SELECT id, url, email, submitted_at").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "url", "email", "submitted_at"}))

	_, err = store.GetRequest(context.Background(), "missing")
	require.ErrorIs(t, err, analyzer.ErrRequestNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
