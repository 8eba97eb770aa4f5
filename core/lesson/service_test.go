package lesson_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proclass/backend/core/lesson"
	dummydb "github.com/proclass/backend/storage/database/dummy"
)

func setup(t *testing.T) *lesson.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return lesson.NewService(dummydb.NewLessonRepository(db))
}

func Test_Service_Create_defaults(t *testing.T) {
	svc := setup(t)

	nl := lesson.NewLesson{
		StudentID: "0c5e1a39-7b64-4f4e-9b2a-3d8f16c40a71",
		Subject:   "  Piano  ",
		StartsAt:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, nl.Validate())
	assert.Equal(t, "Piano", nl.Subject)
	assert.Equal(t, 60, nl.DurationMin)

	lsn, err := svc.Create(context.Background(), "tch-1", nl)
	require.NoError(t, err)
	assert.NotEmpty(t, lsn.ID)
	assert.Equal(t, "tch-1", lsn.TeacherID)
	assert.Equal(t, lesson.StatusScheduled, lsn.Status)
}

func Test_Service_Filter(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	ana := "0c5e1a39-7b64-4f4e-9b2a-3d8f16c40a71"
	bia := "4f9d2b8e-1c3a-4e57-8a6b-2e94d07c5f13"
	mk := func(studentID string, startsAt time.Time) lesson.Lesson {
		lsn, err := svc.Create(ctx, "tch-1", lesson.NewLesson{StudentID: studentID, StartsAt: startsAt})
		require.NoError(t, err)
		return lsn
	}
	mon := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	wed := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	fri := time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)
	l1 := mk(ana, mon)
	l2 := mk(ana, fri)
	l3 := mk(bia, wed)

	// completed lessons stay queryable by status
	done, err := svc.Update(ctx, l1, lesson.UpdateLesson{Status: lesson.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, lesson.StatusCompleted, done.Status)

	tests := []struct {
		name   string
		filter lesson.QueryFilter
		want   []string
	}{
		{"all", lesson.QueryFilter{}, []string{l1.ID, l2.ID, l3.ID}},
		{"by student", lesson.QueryFilter{StudentID: bia}, []string{l3.ID}},
		{"by status", lesson.QueryFilter{Status: lesson.StatusCompleted}, []string{l1.ID}},
		{"by window", lesson.QueryFilter{From: wed, To: fri}, []string{l2.ID, l3.ID}},
		{"upcoming only", lesson.QueryFilter{From: fri.Add(-time.Hour)}, []string{l2.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Filter(ctx, "tch-1", tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}
