package forum

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sakif/forumfront/internal/model"
)

// Hot-topic thresholds. Both are exclusive.
const (
	HotViewThreshold  = 100
	HotReplyThreshold = 10
)

// AllCategories disables category filtering.
const AllCategories = "all"

// SortBy names a topic ordering.
type SortBy string

const (
	SortNewest  SortBy = "newest"  // created_at, newest first
	SortPopular SortBy = "popular" // view_count, highest first
	SortActive  SortBy = "active"  // reply_count, highest first
)

// ParseSort maps a query value to a SortBy, defaulting to newest.
func ParseSort(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortPopular:
		return SortPopular
	case SortActive:
		return SortActive
	default:
		return SortNewest
	}
}

// Filter selects and orders topics.
type Filter struct {
	// Category is a category name, or "all"/"" for every category.
	Category string
	// Search is matched case-insensitively against titles only.
	Search string
	Sort   SortBy
}

// TopicView is a topic plus the fields derived for display.
type TopicView struct {
	model.Topic
	CategoryName string `json:"category_name"`
	ColorClass   string `json:"color_class"`
	Hot          bool   `json:"hot"`
	DateLabel    string `json:"date_label"`
}

// IsHotTopic reports whether t gets the "hot" badge.
func IsHotTopic(t *model.Topic) bool {
	return t.ViewCount > HotViewThreshold || t.ReplyCount > HotReplyThreshold
}

// Processed filters and sorts the loaded topics. The sort is stable, so
// topics that compare equal keep the backend's order.
func (f *Forum) Processed(flt Filter) []TopicView {
	f.mu.RLock()
	topics := append([]model.Topic(nil), f.topics...)
	categories := f.categories
	f.mu.RUnlock()

	now := f.now()
	search := strings.ToLower(strings.TrimSpace(flt.Search))
	category := strings.TrimSpace(flt.Category)

	out := make([]TopicView, 0, len(topics))
	for i := range topics {
		t := &topics[i]
		name := categoryName(t, categories)
		if category != "" && category != AllCategories && name != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		v := TopicView{
			Topic:        *t,
			CategoryName: name,
			Hot:          IsHotTopic(t),
			DateLabel:    FormatDate(t.CreatedAt.Time, now),
		}
		if name != "" {
			v.ColorClass = f.colors.Color(name)
		}
		out = append(out, v)
	}

	SortTopics(out, flt.Sort)
	return out
}

// SortTopics orders views in place, descending on the key chosen by by.
func SortTopics(views []TopicView, by SortBy) {
	var cmp func(a, b TopicView) int
	switch by {
	case SortPopular:
		cmp = func(a, b TopicView) int { return b.ViewCount - a.ViewCount }
	case SortActive:
		cmp = func(a, b TopicView) int { return b.ReplyCount - a.ReplyCount }
	default:
		cmp = func(a, b TopicView) int { return b.CreatedAt.Compare(a.CreatedAt.Time) }
	}
	slices.SortStableFunc(views, cmp)
}

// Palette is the fixed list of category colour classes.
var Palette = [...]string{
	"bg-blue-100 text-blue-800",
	"bg-green-100 text-green-800",
	"bg-yellow-100 text-yellow-800",
	"bg-red-100 text-red-800",
	"bg-purple-100 text-purple-800",
	"bg-pink-100 text-pink-800",
	"bg-indigo-100 text-indigo-800",
	"bg-orange-100 text-orange-800",
	"bg-teal-100 text-teal-800",
	"bg-cyan-100 text-cyan-800",
}

// ColorAssigner hands out palette entries to category names in first-seen
// order, cycling once the palette is exhausted. A name keeps its colour for
// the assigner's lifetime.
type ColorAssigner struct {
	mu       sync.Mutex
	assigned map[string]string
}

func NewColorAssigner() *ColorAssigner {
	return &ColorAssigner{assigned: make(map[string]string)}
}

// Color returns name's colour, assigning the next one if name is new.
func (a *ColorAssigner) Color(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.assigned[name]; ok {
		return c
	}
	c := Palette[len(a.assigned)%len(Palette)]
	a.assigned[name] = c
	return c
}

// Assigned returns a copy of the current assignments.
func (a *ColorAssigner) Assigned() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.assigned))
	for k, v := range a.assigned {
		out[k] = v
	}
	return out
}

// FormatDate renders t relative to now in the forum's Russian UI style.
func FormatDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "только что"
	case d < time.Hour:
		return fmt.Sprintf("%d мин. назад", int(d/time.Minute))
	}

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return "сегодня в " + t.Format("15:04")
	}
	yy, ym, yd := now.AddDate(0, 0, -1).Date()
	if ty == yy && tm == ym && td == yd {
		return "вчера в " + t.Format("15:04")
	}
	return t.Format("02.01.2006")
}
