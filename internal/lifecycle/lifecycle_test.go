package lifecycle

import (
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestIsVisible(t *testing.T) {
	cases := []struct {
		name        string
		post        models.Post
		allowDraft  bool
		allowFuture bool
		want        bool
	}{
		{"status omitted", models.Post{}, false, false, true},
		{"published", models.Post{Status: models.StatusPublished}, false, false, true},
		{"draft hidden", models.Post{Status: models.StatusDraft}, false, true, false},
		{"draft allowed", models.Post{Status: models.StatusDraft}, true, false, true},
		{"scheduled future hidden", models.Post{Status: models.StatusScheduled, ScheduledDate: at(time.Hour)}, false, false, false},
		{"scheduled future allowed", models.Post{Status: models.StatusScheduled, ScheduledDate: at(time.Hour)}, false, true, true},
		{"scheduled past", models.Post{Status: models.StatusScheduled, ScheduledDate: at(-time.Minute)}, false, false, true},
		{"scheduled exactly now", models.Post{Status: models.StatusScheduled, ScheduledDate: at(0)}, false, false, true},
		{"scheduled no date uses post date future", models.Post{Status: models.StatusScheduled, Date: now.Add(time.Hour)}, false, false, false},
		{"scheduled no date uses post date past", models.Post{Status: models.StatusScheduled, Date: now.Add(-time.Hour)}, false, false, true},
		{"scheduled without any date stays hidden", models.Post{Status: models.StatusScheduled}, false, false, false},
		{"scheduled without any date in preview", models.Post{Status: models.StatusScheduled}, false, true, true},
		{"draft ignores schedule", models.Post{Status: models.StatusDraft, ScheduledDate: at(-time.Hour)}, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsVisible(&tc.post, tc.allowDraft, tc.allowFuture, now); got != tc.want {
				t.Errorf("IsVisible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGate_ScheduledBecomesVisibleOnceDue(t *testing.T) {
	clock := now
	g := Gate{Now: func() time.Time { return clock }}
	post := &models.Post{Status: models.StatusScheduled, ScheduledDate: at(time.Hour)}

	if g.Allows(post, Public) {
		t.Fatal("scheduled post visible before its date")
	}
	clock = now.Add(time.Hour + time.Second)
	if !g.Allows(post, Public) {
		t.Fatal("scheduled post still hidden after its date")
	}
}

func TestGate_PreviewForcesBothFlags(t *testing.T) {
	g := Gate{Now: func() time.Time { return now }}
	draft := &models.Post{Status: models.StatusDraft}
	future := &models.Post{Status: models.StatusScheduled, ScheduledDate: at(24 * time.Hour)}

	v := Visibility{Preview: true}
	if !g.Allows(draft, v) || !g.Allows(future, v) {
		t.Error("preview must show drafts and future posts")
	}
	if got := v.Effective(); !got.AllowDraft || !got.AllowFutureScheduled {
		t.Errorf("Effective = %+v", got)
	}
}
