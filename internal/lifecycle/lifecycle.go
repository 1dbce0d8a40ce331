// Package lifecycle decides whether a post is visible in a given read context.
// Scheduled posts become visible lazily: the wall clock is consulted on every
// read and nothing runs in the background.
package lifecycle

import (
	"time"

	"github.com/starford/folio/internal/models"
)

// Visibility describes what a read may see. Preview forces both flags.
type Visibility struct {
	AllowDraft           bool
	AllowFutureScheduled bool
	Preview              bool
}

// Public is the visibility of anonymous readers.
var Public = Visibility{}

// PreviewAll sees every post regardless of status.
var PreviewAll = Visibility{Preview: true}

// Effective returns v with Preview applied.
func (v Visibility) Effective() Visibility {
	if v.Preview {
		return Visibility{AllowDraft: true, AllowFutureScheduled: true, Preview: true}
	}
	return v
}

// IsVisible reports whether post may be shown at time now.
func IsVisible(post *models.Post, allowDraft, allowFutureScheduled bool, now time.Time) bool {
	switch post.EffectiveStatus() {
	case models.StatusDraft:
		return allowDraft
	case models.StatusScheduled:
		if allowFutureScheduled {
			return true
		}
		due := post.Date
		if post.ScheduledDate != nil {
			due = *post.ScheduledDate
		}
		// An undated scheduled post never comes due on its own.
		if due.IsZero() {
			return false
		}
		return !due.After(now)
	default:
		return true
	}
}

// Gate binds IsVisible to a clock.
type Gate struct {
	Now func() time.Time
}

// Allows reports whether post is visible under v.
func (g Gate) Allows(post *models.Post, v Visibility) bool {
	v = v.Effective()
	return IsVisible(post, v.AllowDraft, v.AllowFutureScheduled, g.now())
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
