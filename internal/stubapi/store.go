// Package stubapi serves a small users API shaped like reqres.in, used as a
// local target for feature runs and for the package tests.
package stubapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User is a stored user.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Store is an in-memory user store.
// Concurrency: all access is guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	users   map[int]User
	created int
	now     func() time.Time
}

// NewStore creates a Store seeded with the twelve reqres.in users.
func NewStore() *Store {
	s := &Store{users: make(map[int]User), now: time.Now}
	s.Reset()
	return s
}

var seedNames = [][2]string{
	{"George", "Bluth"}, {"Janet", "Weaver"}, {"Emma", "Wong"}, {"Eve", "Holt"},
	{"Charles", "Morris"}, {"Tracey", "Ramos"}, {"Michael", "Lawson"}, {"Lindsay", "Ferguson"},
	{"Tobias", "Funke"}, {"Byron", "Fields"}, {"George", "Edwards"}, {"Rachel", "Howell"},
}

// Reset restores the seed data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[int]User, len(seedNames))
	for i, n := range seedNames {
		id := i + 1
		s.users[id] = User{
			ID:        id,
			Email:     fmt.Sprintf("%s.%s@reqres.in", strings.ToLower(n[0]), strings.ToLower(n[1])),
			FirstName: n[0],
			LastName:  n[1],
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		}
	}
	s.created = 0
}

// Get returns the user with id.
func (s *Store) Get(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Page is one page of users.
type Page struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Data       []User `json:"data"`
}

// List returns page (1-based) with perPage users, ordered by ID.
// A page past the end has an empty Data slice.
func (s *Store) List(page, perPage int) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	p := Page{Page: page, PerPage: perPage, Total: len(ids), Data: []User{}}
	p.TotalPages = (len(ids) + perPage - 1) / perPage
	start := (page - 1) * perPage
	for i := start; i < start+perPage && i < len(ids); i++ {
		p.Data = append(p.Data, s.users[ids[i]])
	}
	return p
}

// Create echoes fields back with a generated id and createdAt. Like the real
// service, created records are not retrievable afterwards.
func (s *Store) Create(fields map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++

	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["id"] = uuid.NewString()
	out["createdAt"] = s.now().UTC().Format(time.RFC3339Nano)
	return out
}

// Update echoes fields back with updatedAt.
func (s *Store) Update(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["updatedAt"] = s.now().UTC().Format(time.RFC3339Nano)
	return out
}

// Delete removes the user with id and reports whether it existed.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	delete(s.users, id)
	return ok
}

// Created returns how many users have been created since the last Reset.
func (s *Store) Created() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created
}
