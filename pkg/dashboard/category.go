package dashboard

import (
	"time"

	"github.com/doodlesbykumbi/handover-tracker/pkg/model"
)

type TimeCategory string

const (
	CategoryCancelled   TimeCategory = "cancelled"
	CategoryCompleted   TimeCategory = "completed"
	CategoryUnscheduled TimeCategory = "unscheduled"
	CategoryOverdue     TimeCategory = "overdue"
	CategoryThisWeek    TimeCategory = "this_week"
	CategoryNextWeek    TimeCategory = "next_week"
	CategoryLater       TimeCategory = "later"
)

// TimeCategories lists every category in precedence order.
var TimeCategories = []TimeCategory{
	CategoryCancelled,
	CategoryCompleted,
	CategoryUnscheduled,
	CategoryOverdue,
	CategoryThisWeek,
	CategoryNextWeek,
	CategoryLater,
}

func (c TimeCategory) Valid() bool {
	for _, v := range TimeCategories {
		if c == v {
			return true
		}
	}
	return false
}

const week = 7

// Categorize places h in exactly one time category. Due dates are compared
// as calendar dates in loc; the weekly windows roll forward from today.
func Categorize(h *model.Handover, now time.Time, loc *time.Location) TimeCategory {
	switch {
	case h.Status == model.StatusCancelled:
		return CategoryCancelled
	case h.Status == model.StatusCompleted || h.CompletionPercentage >= 100:
		return CategoryCompleted
	case h.DueDate == nil:
		return CategoryUnscheduled
	}

	days := h.DueDate.DaysUntil(now, location(loc))
	switch {
	case days < 0:
		return CategoryOverdue
	case days < week:
		return CategoryThisWeek
	case days < 2*week:
		return CategoryNextWeek
	default:
		return CategoryLater
	}
}

// DeriveStatus is the status implied by the completion percentage.
// Cancelled handovers keep their status.
func DeriveStatus(h *model.Handover) model.Status {
	switch {
	case h.Status == model.StatusCancelled:
		return model.StatusCancelled
	case h.CompletionPercentage <= 0:
		return model.StatusNotStarted
	case h.CompletionPercentage >= 100:
		return model.StatusCompleted
	default:
		return model.StatusInProgress
	}
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
