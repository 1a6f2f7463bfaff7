package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/pipeline"
	"doc-insight-go/pkg/es"
	"doc-insight-go/pkg/storage"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*model.User
	err    error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return fmt.Errorf("create user: %w", model.ErrConflict)
	}
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.Email] = &cp
	return nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[email]
	if !ok {
		return nil, fmt.Errorf("find user: %w", model.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", model.ErrNotFound)
}

type memTokenRepo struct {
	revoked map[string]time.Duration
	err     error
}

func (r *memTokenRepo) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[token] = ttl
	return nil
}

func (r *memTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[token]
	return ok, nil
}

type memDocRepo struct {
	docs  map[string]*model.Document
	convs map[string][]model.Conversation
	err   error
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: map[string]*model.Document{}, convs: map[string][]model.Conversation{}}
}

func (r *memDocRepo) Create(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("doc-%d", len(r.docs)+1)
	}
	doc.CreatedAt = time.Now()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocRepo) ListByOwner(ctx context.Context, ownerID uint) ([]model.DocumentSummary, error) {
	out := make([]model.DocumentSummary, 0)
	for _, d := range r.docs {
		if d.UserID == ownerID {
			out = append(out, model.DocumentSummary{ID: d.ID, FileName: d.FileName, CreatedAt: d.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memDocRepo) GetByOwnerAndID(ctx context.Context, ownerID uint, id string) (*model.Document, error) {
	d, ok := r.docs[id]
	if !ok || d.UserID != ownerID {
		return nil, fmt.Errorf("get document: %w", model.ErrNotFound)
	}
	cp := *d
	cp.Conversations = append([]model.Conversation(nil), r.convs[id]...)
	return &cp, nil
}

func (r *memDocRepo) AddConversation(ctx context.Context, documentID, question, answer string) (*model.Conversation, error) {
	if r.err != nil {
		return nil, r.err
	}
	c := model.Conversation{ID: uint(len(r.convs[documentID]) + 1), DocumentID: documentID, Question: question, Answer: answer}
	r.convs[documentID] = append([]model.Conversation{c}, r.convs[documentID]...)
	return &c, nil
}

func (r *memDocRepo) CountConversations(ctx context.Context, documentID string) (int64, error) {
	return int64(len(r.convs[documentID])), nil
}

type fakeAnswerer struct {
	answer string
	err    error
	got    []string
}

func (f *fakeAnswerer) Answer(ctx context.Context, text, question string) (string, error) {
	f.got = append(f.got, text+"|"+question)
	return f.answer, f.err
}

type fakeIngester struct {
	in  pipeline.Input
	res *model.IngestResult
	err error
}

func (f *fakeIngester) Process(ctx context.Context, in pipeline.Input) (*model.IngestResult, error) {
	f.in = in
	return f.res, f.err
}

type fakeFetcher struct {
	objects map[string]*storage.Object
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) (*storage.Object, error) {
	obj, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", key, model.ErrNotFound)
	}
	return obj, nil
}

type fakeIndex struct {
	indexed []es.IndexedDocument
	owner   uint
	query   string
	hits    []model.SearchHit
	err     error
}

func (f *fakeIndex) Index(ctx context.Context, doc es.IndexedDocument) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, doc)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, ownerID uint, query string, size int) ([]model.SearchHit, error) {
	f.owner, f.query = ownerID, query
	return f.hits, f.err
}

var errBoom = errors.New("boom")
