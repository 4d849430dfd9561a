package store

import (
	"context"
	"strconv"
	"sync"
)

// Memory keeps blogs in process memory.
type Memory struct {
	mu     sync.RWMutex
	blogs  map[string]Blog
	order  []string
	nextID int
}

// NewMemory returns a store holding seed, numbered from 1 in the given order.
func NewMemory(seed ...Blog) *Memory {
	m := &Memory{blogs: make(map[string]Blog), nextID: 1}
	for _, b := range seed {
		m.insert(b)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, id string) (Blog, error) {
	if err := ctx.Err(); err != nil {
		return Blog{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blogs[id]
	if !ok {
		return Blog{}, ErrNotFound
	}
	return b, nil
}

func (m *Memory) List(ctx context.Context) ([]Blog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	blogs := make([]Blog, 0, len(m.order))
	for _, id := range m.order {
		blogs = append(blogs, m.blogs[id])
	}
	return blogs, nil
}

func (m *Memory) Insert(ctx context.Context, b Blog) (Blog, error) {
	if err := ctx.Err(); err != nil {
		return Blog{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(b), nil
}

// insert must be called with mu held for writing.
func (m *Memory) insert(b Blog) Blog {
	b.ID = strconv.Itoa(m.nextID)
	m.nextID++
	m.blogs[b.ID] = b
	m.order = append(m.order, b.ID)
	return b
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blogs[id]; !ok {
		return ErrNotFound
	}
	delete(m.blogs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
