package storage

import (
	"context"
	"testing"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

func TestMemorySessionRoundTrip(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	got, err := s.Get(ctx, "549111")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("unseen identity returned %+v, want nil", got)
	}

	sess := entity.NewSession("549111", time.Now())
	sess.Mode = entity.ModeWaitingSellerName
	sess.Metadata["seller_name"] = "López"
	if err := s.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}

	got, err = s.Get(ctx, "549111")
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != entity.ModeWaitingSellerName || got.Metadata["seller_name"] != "López" {
		t.Errorf("loaded session = %+v", got)
	}

	// The store hands out copies; mutating a loaded session must not
	// leak back.
	got.Metadata["seller_name"] = "otro"
	again, _ := s.Get(ctx, "549111")
	if again.Metadata["seller_name"] != "López" {
		t.Error("metadata aliasing between loads")
	}
}

func TestMemorySessionLeadsAndLogs(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	lead := entity.Lead{ID: "l1", Identity: "549111", Kind: entity.KindBuyer, Buyer: &entity.BuyerProfile{Location: "CABA", Urgency: "ya"}}
	if err := s.SaveLead(ctx, lead); err != nil {
		t.Fatal(err)
	}
	if err := s.LogEvent(ctx, "549111", "search_text", "gol"); err != nil {
		t.Fatal(err)
	}

	leads := s.Leads()
	if len(leads) != 1 || leads[0].ID != "l1" {
		t.Errorf("leads = %+v", leads)
	}
}

func TestMemorySessionTopics(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	if _, ok, _ := s.GetTopic(ctx, "549111"); ok {
		t.Fatal("unexpected topic for unseen identity")
	}
	if err := s.SetTopic(ctx, "549111", 42); err != nil {
		t.Fatal(err)
	}

	id, ok, err := s.GetTopic(ctx, "549111")
	if err != nil || !ok || id != 42 {
		t.Fatalf("topic = %d %v %v", id, ok, err)
	}

	identity, ok, err := s.FindIdentityByTopic(ctx, 42)
	if err != nil || !ok || identity != "549111" {
		t.Fatalf("identity = %q %v %v", identity, ok, err)
	}
	if _, ok, _ := s.FindIdentityByTopic(ctx, 7); ok {
		t.Error("unexpected identity for unknown topic")
	}
}
