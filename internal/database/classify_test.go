package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	pq "github.com/lib/pq"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
)

func TestClassify(t *testing.T) {
	plain := errors.New("syntax error")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pq unique violation", &pq.Error{Code: "23505"}, apperrors.ErrConstraintViolation},
		{"pq foreign key", &pq.Error{Code: "23503"}, apperrors.ErrConstraintViolation},
		{"pq connection failure", &pq.Error{Code: "08006"}, apperrors.ErrStorageUnavailable},
		{"pq disk full", &pq.Error{Code: "53100"}, apperrors.ErrStorageUnavailable},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, apperrors.ErrStorageUnavailable},
		{"bad conn", driver.ErrBadConn, apperrors.ErrStorageUnavailable},
		{"conn done", fmt.Errorf("exec: %w", sql.ErrConnDone), apperrors.ErrStorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("Classify() dropped the driver error from the chain")
			}
		})
	}

	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v", got)
	}
	if got := Classify(sql.ErrNoRows); got != sql.ErrNoRows {
		t.Errorf("Classify(ErrNoRows) = %v, want unchanged", got)
	}
	if got := Classify(&pq.Error{Code: "42601"}); errors.Is(got, apperrors.ErrConstraintViolation) || errors.Is(got, apperrors.ErrStorageUnavailable) {
		t.Errorf("Classify(syntax) = %v, want unclassified", got)
	}
	if got := Classify(plain); got != plain {
		t.Errorf("Classify(plain) = %v, want unchanged", got)
	}

	once := Classify(driver.ErrBadConn)
	if twice := Classify(once); twice != once {
		t.Error("Classify() wrapped an already classified error again")
	}
}
