package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

func TestService_AppendRequiresTypeAndActor(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{ActorUserID: "u"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing type, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeLogin}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for login without actor, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeTokenTampering}); err != nil {
		t.Fatalf("tampering events need no actor: %v", err)
	}
}

func TestService_RecordCapturesClaimsAndIP(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	ctx := WithClientIP(context.Background(), "1.2.3.4")
	claims := &auth.Claims{UserID: "u1", Email: "u1@example.com", Role: auth.RoleStudent}
	claims.ID = "jti-1"
	svc.Record(ctx, EventTypeRefresh, claims, "access token refreshed")

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.IPAddress != "1.2.3.4" || e.ActorUserID != "u1" || e.ActorRole != "student" || e.TokenID != "jti-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned")
	}
}

func TestService_RecordSwallowsFailures(t *testing.T) {
	var svc *Service
	svc.Record(context.Background(), EventTypeLogout, nil, "nil service is a no-op")

	svc = NewService(NewMemoryRepo())
	svc.Record(context.Background(), EventTypeLogout, nil, "invalid event is logged, not returned")
}

func TestService_RecentNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3"} {
		svc.Record(ctx, EventTypeLogin, &auth.Claims{UserID: id, Role: auth.RoleStudent}, "login")
	}
	svc.Record(ctx, EventTypeTokenTampering, nil, "bad signature")

	got, err := svc.Recent(ctx, Query{Type: EventTypeLogin, Limit: 2})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ActorUserID != "u3" || got[1].ActorUserID != "u2" {
		t.Fatalf("events = %+v", got)
	}

	all, _ := svc.Recent(ctx, Query{})
	if len(all) != 4 || all[0].Type != EventTypeTokenTampering {
		t.Fatalf("all = %+v", all)
	}
}
