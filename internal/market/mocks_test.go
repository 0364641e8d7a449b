package market

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/erazemk/wildcat/internal/model"
)

type mockAuth struct {
	mock.Mock

	mu        sync.Mutex
	listeners []func(*model.Session)
	subscribe int
}

func (m *mockAuth) RequestCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuth) VerifyCode(ctx context.Context, email, code string) (*model.Session, error) {
	args := m.Called(ctx, email, code)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *mockAuth) Session(ctx context.Context) (*model.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *mockAuth) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAuth) OnChange(fn func(*model.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribe++
	m.listeners = append(m.listeners, fn)
	return func() {}
}

// emit simulates the gateway reporting a session change.
func (m *mockAuth) emit(s *model.Session) {
	m.mu.Lock()
	fns := append([]func(*model.Session){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListItems(ctx context.Context, q model.ItemQuery) ([]model.Item, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Item)
	return items, args.Error(1)
}

func (m *mockStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*model.Item)
	return item, args.Error(1)
}

func (m *mockStore) CreateItem(ctx context.Context, n model.NewListing) (*model.Item, error) {
	args := m.Called(ctx, n)
	item, _ := args.Get(0).(*model.Item)
	return item, args.Error(1)
}

func (m *mockStore) UpdateItem(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error) {
	args := m.Called(ctx, id, p)
	item, _ := args.Get(0).(*model.Item)
	return item, args.Error(1)
}

func (m *mockStore) ArchiveItem(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *mockStore) UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.Profile, error) {
	args := m.Called(ctx, id, p)
	out, _ := args.Get(0).(*model.Profile)
	return out, args.Error(1)
}

type mockObjects struct {
	mock.Mock
}

func (m *mockObjects) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, bucket, key, data, contentType)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	created []*model.Item
}

func (n *recordingNotifier) ListingCreated(_ context.Context, item *model.Item) {
	n.created = append(n.created, item)
}

func ptr[T any](v T) *T { return &v }

func completeSession(id, name string) *model.Session {
	return &model.Session{
		UserID:  id,
		Email:   id + "@davidson.edu",
		Profile: &model.Profile{ID: id, Email: id + "@davidson.edu", FullName: ptr(name)},
	}
}

func incompleteSession(id string) *model.Session {
	return &model.Session{
		UserID:  id,
		Email:   id + "@davidson.edu",
		Profile: &model.Profile{ID: id, Email: id + "@davidson.edu"},
	}
}
