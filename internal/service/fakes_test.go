package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/meetrix/room-gateway/internal/model"
	"github.com/meetrix/room-gateway/internal/queue"
	"github.com/meetrix/room-gateway/internal/repository"
)

var errStoreDown = errors.New("store down")

// memUserStore is an in-memory UserStore honoring soft-delete semantics.
type memUserStore struct {
	mu    sync.Mutex
	seq   uint64
	users map[uint64]*model.User
	down  bool
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uint64]*model.User)}
}

func (s *memUserStore) add(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	u.ID = s.seq
	cp := u
	s.users[u.ID] = &cp
	return &cp
}

func (s *memUserStore) GetByLoginOrEmail(_ context.Context, identifier string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return model.User{}, errStoreDown
	}
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for _, u := range s.users {
		if !u.Deleted && (u.Login == identifier || u.Email == identifier) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return model.User{}, errStoreDown
	}
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (s *memUserStore) GetByExternal(_ context.Context, externalID, externalType string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if !u.Deleted && u.ExternalID == externalID && u.ExternalType == externalType {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	var out []model.User
	for id := uint64(1); id <= s.seq; id++ {
		if u, ok := s.users[id]; ok && !u.Deleted {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if !ex.Deleted && ex.Login == strings.ToLower(u.Login) {
			return repository.ErrDuplicate
		}
	}
	s.seq++
	u.ID = s.seq
	u.Login = strings.ToLower(u.Login)
	cp := *u
	cp.Rights = model.ParseRights(u.Rights.String())
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) Update(_ context.Context, u *model.User, updatedBy uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	cp.Rights = model.ParseRights(u.Rights.String())
	cp.UpdatedBy = updatedBy
	s.users[u.ID] = &cp
	u.UpdatedBy = updatedBy
	return nil
}

func (s *memUserStore) SoftDelete(_ context.Context, id, deletedBy uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return repository.ErrNotFound
	}
	u.Deleted = true
	u.UpdatedBy = deletedBy
	return nil
}

// memSessionStore is an in-memory SessionStore with the 15-minute expiry
// rule applied on Get.
type memSessionStore struct {
	mu       sync.Mutex
	seq      int
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]model.Session
}

func newMemSessionStore(ttl time.Duration) *memSessionStore {
	return &memSessionStore{
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]model.Session),
	}
}

func (s *memSessionStore) Create(_ context.Context, userID uint64, localeID uint32) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := s.now()
	sess := model.Session{
		ID:         fmt.Sprintf("sid-%d", s.seq),
		UserID:     userID,
		LocaleID:   localeID,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *memSessionStore) Get(_ context.Context, id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Expired(s.ttl, s.now()) {
		return model.Session{}, repository.ErrNotFound
	}
	return sess, nil
}

func (s *memSessionStore) Update(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.LastUsedAt = s.now()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memSessionStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.LastUsedAt = s.now()
		s.sessions[id] = sess
	}
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) SweepExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(s.ttl, s.now()) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// memHashRecorder is an in-memory HashRecorder with single-use redemption.
type memHashRecorder struct {
	mu         sync.Mutex
	seq        int
	hashes     map[string]model.RoomHash
	failCreate bool
}

func newMemHashRecorder() *memHashRecorder {
	return &memHashRecorder{hashes: make(map[string]model.RoomHash)}
}

func (s *memHashRecorder) Create(_ context.Context, sessionID string, opts model.RoomOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return "", errStoreDown
	}
	s.seq++
	hash := fmt.Sprintf("hash-%d", s.seq)
	s.hashes[hash] = model.RoomHash{
		Hash:           hash,
		SessionID:      sessionID,
		RoomID:         opts.RoomID,
		Moderator:      opts.Moderator,
		AVTest:         opts.ShowAudioVideoTest,
		Reuse:          opts.AllowSameURLMultipleTimes,
		RecordingID:    opts.RecordingID,
		AllowRecording: opts.AllowRecording,
		CreatedAt:      time.Now().UTC(),
	}
	return hash, nil
}

func (s *memHashRecorder) Redeem(_ context.Context, hash string) (model.RoomHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[hash]
	if !ok {
		return model.RoomHash{}, repository.ErrNotFound
	}
	if h.UsedAt != nil && !h.Reuse {
		return model.RoomHash{}, repository.ErrNotFound
	}
	if h.UsedAt == nil {
		now := time.Now().UTC()
		h.UsedAt = &now
		s.hashes[hash] = h
	}
	return h, nil
}

// memClientRegistry is an in-memory ClientRegistry.
type memClientRegistry struct {
	mu      sync.Mutex
	rooms   map[uint64]map[string]struct{}
	clients map[string]uint64
}

func newMemClientRegistry() *memClientRegistry {
	return &memClientRegistry{
		rooms:   make(map[uint64]map[string]struct{}),
		clients: make(map[string]uint64),
	}
}

func (s *memClientRegistry) Join(_ context.Context, uid string, roomID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[roomID] == nil {
		s.rooms[roomID] = make(map[string]struct{})
	}
	s.rooms[roomID][uid] = struct{}{}
	s.clients[uid] = roomID
	return nil
}

func (s *memClientRegistry) Kick(_ context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.clients[uid]
	if !ok {
		return false, nil
	}
	delete(s.rooms[roomID], uid)
	delete(s.clients, uid)
	return true, nil
}

func (s *memClientRegistry) CountByRoom(_ context.Context, roomID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rooms[roomID])), nil
}

func (s *memClientRegistry) ListByRoom(_ context.Context, roomID uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rooms[roomID]))
	for uid := range s.rooms[roomID] {
		out = append(out, uid)
	}
	return out, nil
}

// memGroupStore records default-group assignments keyed by user id.
type memGroupStore struct {
	mu       sync.Mutex
	assigned map[uint64]uint64 // user id -> audit actor
	fail     bool
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{assigned: make(map[uint64]uint64)}
}

func (s *memGroupStore) AssignDefault(_ context.Context, userID, actorID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.assigned[userID] = actorID
	return nil
}

// stubPolicy returns a fixed set of violation messages.
type stubPolicy struct{ msgs []string }

func (p *stubPolicy) Validate(string, *model.User) []string { return p.msgs }

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []queue.RoomEvent
}

func (p *capturePublisher) Publish(_ context.Context, ev queue.RoomEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) all() []queue.RoomEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.RoomEvent(nil), p.events...)
}

// testEnv bundles a gateway with its fakes.
type testEnv struct {
	gw       *Gateway
	users    *memUserStore
	sessions *memSessionStore
	hashes   *memHashRecorder
	clients  *memClientRegistry
	groups   *memGroupStore
	policy   *stubPolicy
	events   *capturePublisher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:    newMemUserStore(),
		sessions: newMemSessionStore(15 * time.Minute),
		hashes:   newMemHashRecorder(),
		clients:  newMemClientRegistry(),
		groups:   newMemGroupStore(),
		policy:   &stubPolicy{},
		events:   &capturePublisher{},
	}
	env.gw = NewGateway(env.users, env.sessions, env.hashes, env.clients, env.groups, env.policy, env.events)
	env.gw.BcryptCost = 4 // keep bcrypt cheap in tests
	env.gw.RoomTokenSecret = "test-secret"
	return env
}

// seedCaller creates a user with the given rights and an open session.
func (env *testEnv) seedCaller(rights ...model.Right) (model.User, model.Session) {
	u := env.users.add(model.User{
		Login:  "caller",
		Email:  "caller@example.com",
		Rights: model.NewRightSet(rights...),
	})
	sess, _ := env.sessions.Create(context.Background(), u.ID, 1)
	return *u, sess
}
