package friends

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
)

// --- Mocks ---

type mockRequests struct {
	byID    map[string]domain.FriendRequest
	created []domain.FriendRequest
	updated []domain.FriendRequest
	deleted []string
}

func newMockRequests() *mockRequests {
	return &mockRequests{byID: map[string]domain.FriendRequest{}}
}

func (m *mockRequests) Create(_ context.Context, req domain.FriendRequest) error {
	if _, ok := m.byID[req.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.byID[req.ID] = req
	m.created = append(m.created, req)
	return nil
}

func (m *mockRequests) Get(_ context.Context, id string) (domain.FriendRequest, error) {
	req, ok := m.byID[id]
	if !ok {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	return req, nil
}

func (m *mockRequests) Update(_ context.Context, req domain.FriendRequest) error {
	m.byID[req.ID] = req
	m.updated = append(m.updated, req)
	return nil
}

func (m *mockRequests) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRequests) ListForUser(_ context.Context, userID string) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range m.byID {
		if req.From == userID || req.To == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

type mockProfiles struct {
	byID    map[string]domain.Profile
	linked  [][2]string
	linkErr error
}

func (m *mockProfiles) Get(_ context.Context, id string) (domain.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockProfiles) AddFriend(_ context.Context, userID, friendID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.linked = append(m.linked, [2]string{userID, friendID})
	return nil
}

func fixture() (*Service, *mockRequests, *mockProfiles) {
	requests := newMockRequests()
	profiles := &mockProfiles{byID: map[string]domain.Profile{
		"alice": {ID: "alice"},
		"bob":   {ID: "bob"},
	}}
	return New(requests, profiles, zap.NewNop()), requests, profiles
}

// --- Tests ---

func TestSend(t *testing.T) {
	svc, requests, _ := fixture()

	req, err := svc.Send(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.State != domain.FriendRequestPending {
		t.Errorf("expected pending, got %s", req.State)
	}
	if len(requests.created) != 1 {
		t.Fatalf("expected 1 created request, got %d", len(requests.created))
	}
}

func TestSend_DuplicatePending(t *testing.T) {
	svc, _, _ := fixture()

	if _, err := svc.Send(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := svc.Send(context.Background(), "alice", "bob"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSend_AfterRejectionReplacesRequest(t *testing.T) {
	svc, requests, _ := fixture()

	sent, err := svc.Send(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := svc.Reject(context.Background(), sent.ID, "bob"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	resent, err := svc.Send(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("resend after rejection: %v", err)
	}
	if resent.State != domain.FriendRequestPending {
		t.Errorf("expected pending after resend, got %s", resent.State)
	}
	if len(requests.deleted) != 1 || requests.deleted[0] != sent.ID {
		t.Errorf("expected rejected request %s deleted, got %v", sent.ID, requests.deleted)
	}
	if got := requests.byID[resent.ID]; got.State != domain.FriendRequestPending {
		t.Errorf("expected stored request pending, got %s", got.State)
	}
}

func TestSend_AlreadyFriends(t *testing.T) {
	svc, _, profiles := fixture()
	profiles.byID["alice"] = domain.Profile{ID: "alice", Friends: []string{"bob"}}

	if _, err := svc.Send(context.Background(), "alice", "bob"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists for existing friendship, got %v", err)
	}
}

func TestSend_UnknownRecipient(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Send(context.Background(), "alice", "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAccept_LinksBothFriendSets(t *testing.T) {
	svc, _, profiles := fixture()
	sent, _ := svc.Send(context.Background(), "alice", "bob")

	req, err := svc.Accept(context.Background(), sent.ID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.State != domain.FriendRequestAccepted {
		t.Errorf("expected accepted, got %s", req.State)
	}
	want := [][2]string{{"alice", "bob"}, {"bob", "alice"}}
	if len(profiles.linked) != 2 || profiles.linked[0] != want[0] || profiles.linked[1] != want[1] {
		t.Errorf("expected both friend sets linked, got %v", profiles.linked)
	}
}

func TestAccept_OnlyRecipient(t *testing.T) {
	svc, _, _ := fixture()
	sent, _ := svc.Send(context.Background(), "alice", "bob")

	if _, err := svc.Accept(context.Background(), sent.ID, "alice"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("sender must not accept their own request, got %v", err)
	}
}

func TestAccept_Twice(t *testing.T) {
	svc, _, _ := fixture()
	sent, _ := svc.Send(context.Background(), "alice", "bob")

	if _, err := svc.Accept(context.Background(), sent.ID, "bob"); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := svc.Accept(context.Background(), sent.ID, "bob"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on double accept, got %v", err)
	}
}

func TestReject_NoFriendLink(t *testing.T) {
	svc, _, profiles := fixture()
	sent, _ := svc.Send(context.Background(), "alice", "bob")

	req, err := svc.Reject(context.Background(), sent.ID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.State != domain.FriendRequestRejected {
		t.Errorf("expected rejected, got %s", req.State)
	}
	if len(profiles.linked) != 0 {
		t.Errorf("reject must not touch friend sets, got %v", profiles.linked)
	}
}

func TestListForUser(t *testing.T) {
	svc, _, _ := fixture()
	if _, err := svc.Send(context.Background(), "alice", "bob"); err != nil {
		t.Fatal(err)
	}

	for _, user := range []string{"alice", "bob"} {
		got, err := svc.ListForUser(context.Background(), user)
		if err != nil {
			t.Fatalf("list for %s: %v", user, err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 request for %s, got %d", user, len(got))
		}
	}

	if _, err := svc.ListForUser(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
