package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestNextSequence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery(`INSERT INTO event_sequence`).
		WithArgs("user-1").
		WillReturnRows(mock.NewRows([]string{"last_sequence"}).AddRow(int64(7)))

	seq, err := repo.NextSequence(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("next sequence: %v", err)
	}
	if seq != 7 {
		t.Fatalf("seq = %d, want 7", seq)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestNextSequenceError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery(`INSERT INTO event_sequence`).
		WithArgs("user-1").
		WillReturnError(errors.New("db down"))

	if _, err := repo.NextSequence(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}
