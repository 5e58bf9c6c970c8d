package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/metrics"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestStoreWithRetry(t *testing.T) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, db *gorm.DB) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "RetryUntilSuccess",
			Run: func(t *testing.T, ctx context.Context, db *gorm.DB) error {
				store := NewNoteStore(db, WithMaxRetries(5), WithBaseBackoff(time.Millisecond))

				before := testutil.ToFloat64(metrics.StoreRetries.WithLabelValues(model.KindNote))

				attempts := 0

				err := store.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
					attempts++
					if attempts <= 3 {
						return errors.WithStack(sqlite3.BUSY)
					}

					return nil
				}, sqlite3.BUSY, sqlite3.LOCKED)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 4, attempts; e != g {
					t.Errorf("attempts: expected %d, got %d", e, g)
				}

				after := testutil.ToFloat64(metrics.StoreRetries.WithLabelValues(model.KindNote))

				if e, g := before+3, after; e != g {
					t.Errorf("metrics.StoreRetries: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "RetriesExhausted",
			Run: func(t *testing.T, ctx context.Context, db *gorm.DB) error {
				store := NewNoteStore(db, WithMaxRetries(2), WithBaseBackoff(time.Millisecond))

				attempts := 0

				err := store.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
					attempts++
					return errors.WithStack(sqlite3.LOCKED)
				}, sqlite3.BUSY, sqlite3.LOCKED)
				if !errors.Is(err, sqlite3.LOCKED) {
					t.Errorf("store.withRetry(): expected error '%v', got '%+v'", sqlite3.LOCKED, err)
				}

				if e, g := 3, attempts; e != g {
					t.Errorf("attempts: expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "NonRetryableCode",
			Run: func(t *testing.T, ctx context.Context, db *gorm.DB) error {
				store := NewNoteStore(db, WithMaxRetries(5), WithBaseBackoff(time.Millisecond))

				attempts := 0

				err := store.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
					attempts++
					return errors.WithStack(sqlite3.CONSTRAINT)
				}, sqlite3.BUSY, sqlite3.LOCKED)
				if !errors.Is(err, sqlite3.CONSTRAINT) {
					t.Errorf("store.withRetry(): expected error '%v', got '%+v'", sqlite3.CONSTRAINT, err)
				}

				if e, g := 1, attempts; e != g {
					t.Errorf("attempts: expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "CanceledDuringBackoff",
			Run: func(t *testing.T, ctx context.Context, db *gorm.DB) error {
				store := NewNoteStore(db, WithMaxRetries(5), WithBaseBackoff(time.Hour))

				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				timer := time.AfterFunc(50*time.Millisecond, cancel)
				defer timer.Stop()

				attempts := 0
				start := time.Now()

				err := store.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
					attempts++
					return errors.WithStack(sqlite3.BUSY)
				}, sqlite3.BUSY, sqlite3.LOCKED)
				if !errors.Is(err, context.Canceled) {
					t.Errorf("store.withRetry(): expected error '%v', got '%+v'", context.Canceled, err)
				}

				if e, g := 1, attempts; e != g {
					t.Errorf("attempts: expected %d, got %d", e, g)
				}

				if elapsed := time.Since(start); elapsed > 10*time.Second {
					t.Errorf("store.withRetry(): expected to return on cancellation, took %s", elapsed)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			db, err := openTestDatabase(t)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if err := tc.Run(t, context.Background(), db); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}
