package records

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is the dev/test fallback when no database is configured.
type InMemoryStore struct {
	mu        sync.Mutex
	questions map[string]Question
	summaries map[string]Summary
	folders   map[string]Folder
	items     map[string]Item
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		questions: make(map[string]Question),
		summaries: make(map[string]Summary),
		folders:   make(map[string]Folder),
		items:     make(map[string]Item),
	}
}

func (s *InMemoryStore) CreateQuestion(_ context.Context, q Question) error {
	if err := validQuestion(q); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return nil
}

func (s *InMemoryStore) ListQuestions(_ context.Context, userID string) ([]Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Question
	for _, q := range s.questions {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (s *InMemoryStore) DeleteQuestion(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok || q.UserID != userID {
		return ErrNotFound
	}
	delete(s.questions, id)
	return nil
}

func (s *InMemoryStore) CreateSummary(_ context.Context, sum Summary) error {
	if err := validSummary(sum); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sum.ID] = sum
	return nil
}

func (s *InMemoryStore) ListSummaries(_ context.Context, userID string) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Summary
	for _, sum := range s.summaries {
		if sum.UserID == userID {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (s *InMemoryStore) DeleteSummary(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, ok := s.summaries[id]
	if !ok || sum.UserID != userID {
		return ErrNotFound
	}
	delete(s.summaries, id)
	return nil
}

func (s *InMemoryStore) CreateFolder(_ context.Context, f Folder) error {
	if err := validFolder(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = f
	return nil
}

func (s *InMemoryStore) ListFolders(_ context.Context, userID string) ([]Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Folder
	for _, f := range s.folders {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (s *InMemoryStore) DeleteFolder(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[id]
	if !ok || f.UserID != userID {
		return ErrNotFound
	}
	delete(s.folders, id)
	for itemID, it := range s.items {
		if it.FolderID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *InMemoryStore) CreateItem(_ context.Context, it Item) error {
	if err := validItem(it); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[it.FolderID]
	if !ok || f.UserID != it.UserID {
		return ErrNotFound
	}
	s.items[it.ID] = it
	return nil
}

func (s *InMemoryStore) ListItems(_ context.Context, userID, folderID string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Item
	for _, it := range s.items {
		if it.FolderID == folderID && it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (s *InMemoryStore) DeleteItem(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}
