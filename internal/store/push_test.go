package store

import (
	"testing"

	"github.com/screenquest/screenquest/internal/model"
)

func TestPushSubscriptionUpsertByEndpoint(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ps := NewPushStore(db)

	sub, err := ps.CreateSubscription(child.ID, "https://push.example/ep1", "p256dh-1", "auth-1", "Milo's tablet")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Re-subscribing the same endpoint rotates the keys instead of duplicating.
	again, err := ps.CreateSubscription(child.ID, "https://push.example/ep1", "p256dh-2", "auth-2", "Milo's tablet")
	if err != nil {
		t.Fatalf("re-create: %v", err)
	}
	if again.ID != sub.ID {
		t.Errorf("resubscribe created a new row: %d vs %d", again.ID, sub.ID)
	}
	if again.P256dhKey != "p256dh-2" {
		t.Errorf("p256dh = %q, want rotated key", again.P256dhKey)
	}

	subs, err := ps.ListByMember(child.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("expected 1 subscription, got %d", len(subs))
	}
}

func TestPushListByRole(t *testing.T) {
	db := testDB(t)
	parent := createParent(t, db, "Sam")
	child := createChild(t, db, "Milo")
	ps := NewPushStore(db)

	if _, err := ps.CreateSubscription(parent.ID, "https://push.example/parent", "k", "a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ps.CreateSubscription(child.ID, "https://push.example/child", "k", "a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	parents, err := ps.ListByRole(model.RoleParent)
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(parents) != 1 || parents[0].MemberID != parent.ID {
		t.Errorf("parent subscriptions = %+v", parents)
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ps := NewPushStore(db)

	if _, err := ps.CreateSubscription(child.ID, "https://push.example/gone", "k", "a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, err := ps.ListByMember(child.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected no subscriptions, got %d", len(subs))
	}
}
