// Package forum holds one browser session's view of the forum: the topic and
// category lists fetched from the backend, their load states, and everything
// derived from them (filtering, sorting, hot badges, category colours).
package forum

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/model"
)

// DefaultPageSize is how many topics one load asks for.
const DefaultPageSize = 100

// Source is the part of the backend client the forum state needs.
type Source interface {
	ListTopics(ctx context.Context, q backend.TopicQuery) ([]model.Topic, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateTopic(ctx context.Context, in model.NewTopic) (*model.Topic, error)
}

// Resource is the load state of one remote list. Topics and categories are
// tracked separately; there is no combined "ready" flag.
type Resource struct {
	Loading bool  `json:"loading"`
	Loaded  bool  `json:"loaded"`
	Err     error `json:"-"`
}

// Error returns the load error message, or "".
func (r Resource) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Snapshot is a consistent copy of the forum state.
type Snapshot struct {
	Topics          []model.Topic
	Categories      []model.Category
	TopicsState     Resource
	CategoriesState Resource
}

// Forum is safe for concurrent use; a session's requests may overlap.
type Forum struct {
	src      Source
	logger   *slog.Logger
	pageSize int
	now      func() time.Time

	mu              sync.RWMutex
	topics          []model.Topic
	categories      []model.Category
	topicsState     Resource
	categoriesState Resource
	colors          *ColorAssigner
}

// New returns an unloaded Forum.
func New(src Source, logger *slog.Logger) *Forum {
	return &Forum{
		src:      src,
		logger:   logger,
		pageSize: DefaultPageSize,
		now:      time.Now,
		colors:   NewColorAssigner(),
	}
}

// EnsureLoaded loads both lists the first time it is called, and again for
// any list whose previous load failed. A list already loading is left to
// the caller that started it.
func (f *Forum) EnsureLoaded(ctx context.Context) {
	f.mu.Lock()
	needTopics := !f.topicsState.Loaded && !f.topicsState.Loading
	needCategories := !f.categoriesState.Loaded && !f.categoriesState.Loading
	if needTopics {
		f.topicsState.Loading = true
	}
	if needCategories {
		f.categoriesState.Loading = true
	}
	f.mu.Unlock()

	var wg sync.WaitGroup
	if needTopics {
		wg.Go(func() { _ = f.fetchTopics(ctx) })
	}
	if needCategories {
		wg.Go(func() { _ = f.fetchCategories(ctx) })
	}
	wg.Wait()
}

// Load refetches both lists concurrently. Each list succeeds or fails on its
// own; the returned error is the topics error, else the categories error.
func (f *Forum) Load(ctx context.Context) error {
	var (
		wg                sync.WaitGroup
		topicsErr, catErr error
	)
	wg.Go(func() { topicsErr = f.LoadTopics(ctx) })
	wg.Go(func() { catErr = f.LoadCategories(ctx) })
	wg.Wait()

	if topicsErr != nil {
		return topicsErr
	}
	return catErr
}

// LoadTopics fetches the first page of topics.
func (f *Forum) LoadTopics(ctx context.Context) error {
	f.mu.Lock()
	f.topicsState.Loading = true
	f.mu.Unlock()
	return f.fetchTopics(ctx)
}

// fetchTopics runs the request for a load already marked as in progress.
func (f *Forum) fetchTopics(ctx context.Context) error {
	topics, err := f.src.ListTopics(ctx, backend.TopicQuery{Limit: f.pageSize})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.topicsState.Loading = false
	if err != nil {
		f.topicsState.Err = err
		f.logger.Error("failed to load topics", slog.String("error", err.Error()))
		return fmt.Errorf("loading topics: %w", err)
	}
	f.topics = topics
	f.topicsState.Err = nil
	f.topicsState.Loaded = true
	f.assignColorsLocked()
	return nil
}

// LoadCategories fetches all categories.
func (f *Forum) LoadCategories(ctx context.Context) error {
	f.mu.Lock()
	f.categoriesState.Loading = true
	f.mu.Unlock()
	return f.fetchCategories(ctx)
}

func (f *Forum) fetchCategories(ctx context.Context) error {
	categories, err := f.src.ListCategories(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoriesState.Loading = false
	if err != nil {
		f.categoriesState.Err = err
		f.logger.Error("failed to load categories", slog.String("error", err.Error()))
		return fmt.Errorf("loading categories: %w", err)
	}
	f.categories = categories
	f.categoriesState.Err = nil
	f.categoriesState.Loaded = true
	f.assignColorsLocked()
	return nil
}

// CreateTopic validates in, posts it, and appends the created topic.
// Validation failures never reach the backend.
func (f *Forum) CreateTopic(ctx context.Context, in model.NewTopic) (*model.Topic, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	switch {
	case in.Title == "":
		return nil, apperror.ValidationFailed("title", "topic title is required")
	case in.Content == "":
		return nil, apperror.ValidationFailed("content", "topic content is required")
	case in.CategoryID <= 0:
		return nil, apperror.ValidationFailed("category_id", "choose a category")
	}

	t, err := f.src.CreateTopic(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("creating topic: %w", err)
	}

	f.mu.Lock()
	f.topics = append(f.topics, *t)
	f.assignColorsLocked()
	f.mu.Unlock()

	f.logger.Info("topic created", slog.Int64("id", t.ID), slog.String("title", t.Title))
	return t, nil
}

// RemoveTopic drops a topic from the local list, e.g. after an admin delete.
func (f *Forum) RemoveTopic(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.topics[:0]
	for _, t := range f.topics {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.topics = kept
}

// Snapshot copies the current state.
func (f *Forum) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Snapshot{
		Topics:          append([]model.Topic(nil), f.topics...),
		Categories:      append([]model.Category(nil), f.categories...),
		TopicsState:     f.topicsState,
		CategoriesState: f.categoriesState,
	}
}

// CategoryColor returns the session colour class for a category name.
func (f *Forum) CategoryColor(name string) string {
	return f.colors.Color(name)
}

// assignColorsLocked gives every category name seen in the topic list (in
// list order) and then in the category list a colour. Existing assignments
// are never changed.
func (f *Forum) assignColorsLocked() {
	for i := range f.topics {
		if name := categoryName(&f.topics[i], f.categories); name != "" {
			f.colors.Color(name)
		}
	}
	for _, c := range f.categories {
		f.colors.Color(c.Name)
	}
}

// categoryName resolves a topic's category name from the denormalised field
// or from the category list.
func categoryName(t *model.Topic, categories []model.Category) string {
	if t.Category != nil && t.Category.Name != "" {
		return t.Category.Name
	}
	id := t.CategoryID
	if id == 0 && t.Category != nil {
		id = t.Category.ID
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
