package application

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"telegram-promo-bot/internal/usecase"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func newTestFacade(repo *memPromoRepo, membership *fakeMembership, operators ...int64) *BotFacade {
	logger := newTestLogger()
	issueUC := usecase.NewIssuanceUseCase(repo, membership, logger)
	redeemUC := usecase.NewRedemptionUseCase(repo, membership, logger)
	operatorUC := usecase.NewOperatorUseCase(repo, newMemModeRepo(), membership, operators, logger)
	return NewBotFacade(issueUC, redeemUC, operatorUC)
}

// TestBotFacade_FullScenario walks the whole counter flow: a subscriber gets
// a code, an operator enters checking mode, redeems it once, and is refused
// the second time.
func TestBotFacade_FullScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMemPromoRepo()
	membership := newFakeMembership(42)
	facade := newTestFacade(repo, membership, 100)

	// User 42 sends /start.
	reply, err := facade.HandleIssue(ctx, 42)
	if err != nil {
		t.Fatalf("HandleIssue failed: %v", err)
	}
	if reply.Status != usecase.Issued {
		t.Fatalf("expected Issued, got %v", reply.Status)
	}
	if !codePattern.MatchString(reply.Code) {
		t.Fatalf("code %q does not match ^[A-Z0-9]{8}$", reply.Code)
	}
	code := reply.Code

	// Operator enters checking mode.
	text, err := facade.HandleToggleMode(ctx, 100)
	if err != nil {
		t.Fatalf("HandleToggleMode failed: %v", err)
	}
	if !strings.Contains(text, "activated") {
		t.Fatalf("expected activation reply, got %q", text)
	}
	if !facade.OperatorChecking(ctx, 100) {
		t.Fatal("routing predicate must report checking mode")
	}

	// Operator sends the code.
	msg, err := facade.HandleRedeem(ctx, 100, code, []string{"@barmen"})
	if err != nil {
		t.Fatalf("HandleRedeem failed: %v", err)
	}
	for _, want := range []string{code, "@barmen", "🟢 Valid", "🟢 Subscribed", "🟢 Hand it over!"} {
		if !strings.Contains(msg, want) {
			t.Errorf("redemption message missing %q:\n%s", want, msg)
		}
	}

	// Same code again.
	msg, err = facade.HandleRedeem(ctx, 100, code, nil)
	if err != nil {
		t.Fatalf("second HandleRedeem failed: %v", err)
	}
	if !strings.Contains(msg, "🔴 Already used") {
		t.Errorf("second attempt must report already used:\n%s", msg)
	}
	if strings.Contains(msg, "Hand it over") {
		t.Errorf("second attempt must not grant a redemption:\n%s", msg)
	}

	// Counts reflect the single redemption.
	counts, err := facade.HandleCounts(ctx, 100)
	if err != nil {
		t.Fatalf("HandleCounts failed: %v", err)
	}
	if counts != "1 used\n0 active" {
		t.Errorf("unexpected counts reply: %q", counts)
	}
}

func TestBotFacade_HandleRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code", func(t *testing.T) {
		facade := newTestFacade(newMemPromoRepo(), newFakeMembership(), 100)
		msg, err := facade.HandleRedeem(ctx, 100, "zzzzzzzz", nil)
		if err != nil {
			t.Fatalf("HandleRedeem failed: %v", err)
		}
		if msg != "🔴 Promo code ZZZZZZZZ not found." {
			t.Errorf("unexpected not-found message: %q", msg)
		}
	})

	t.Run("holder who left the channel is refused", func(t *testing.T) {
		repo := newMemPromoRepo()
		membership := newFakeMembership(42)
		facade := newTestFacade(repo, membership, 100)

		reply, err := facade.HandleIssue(ctx, 42)
		if err != nil || reply.Status != usecase.Issued {
			t.Fatalf("seed issuance failed: %+v %v", reply, err)
		}
		membership.setMember(42, false)

		msg, err := facade.HandleRedeem(ctx, 100, reply.Code, nil)
		if err != nil {
			t.Fatalf("HandleRedeem failed: %v", err)
		}
		if !strings.Contains(msg, "🟢 Valid") || !strings.Contains(msg, "🔴 Not subscribed") {
			t.Errorf("unexpected message: %q", msg)
		}
		if strings.Contains(msg, "Hand it over") {
			t.Errorf("must not redeem for an unsubscribed holder: %q", msg)
		}
		pc, _ := repo.FindByCode(ctx, reply.Code)
		if pc.Used {
			t.Error("code must stay unused")
		}
	})
}

func TestBotFacade_NotEligibleIssue(t *testing.T) {
	ctx := context.Background()
	facade := newTestFacade(newMemPromoRepo(), newFakeMembership(), 100)

	reply, err := facade.HandleIssue(ctx, 7)
	if err != nil {
		t.Fatalf("HandleIssue failed: %v", err)
	}
	if reply.Status != usecase.NotEligible || reply.Code != "" {
		t.Fatalf("expected NotEligible with empty code, got %+v", reply)
	}
}

func TestBotFacade_HandleMembershipOf(t *testing.T) {
	ctx := context.Background()
	facade := newTestFacade(newMemPromoRepo(), newFakeMembership(42), 100)

	t.Run("bad arguments yield a usage hint", func(t *testing.T) {
		for _, args := range []string{"", "abc", "-5"} {
			msg, err := facade.HandleMembershipOf(ctx, 100, args)
			if err != nil {
				t.Fatalf("HandleMembershipOf(%q) failed: %v", args, err)
			}
			if msg != "Usage: /cu <user_id>" {
				t.Errorf("args %q: unexpected reply %q", args, msg)
			}
		}
	})

	t.Run("reports subscription state", func(t *testing.T) {
		msg, err := facade.HandleMembershipOf(ctx, 100, "42")
		if err != nil {
			t.Fatalf("HandleMembershipOf failed: %v", err)
		}
		if !strings.Contains(msg, "🟢 Subscribed") {
			t.Errorf("unexpected reply: %q", msg)
		}
	})
}

func TestBotFacade_HandleExport(t *testing.T) {
	ctx := context.Background()
	repo := newMemPromoRepo()
	membership := newFakeMembership(1)
	facade := newTestFacade(repo, membership, 100)

	reply, err := facade.HandleIssue(ctx, 1)
	if err != nil || reply.Status != usecase.Issued {
		t.Fatalf("seed issuance failed: %+v %v", reply, err)
	}

	filename, data, err := facade.HandleExport(ctx, 100)
	if err != nil {
		t.Fatalf("HandleExport failed: %v", err)
	}
	if filename != "promo_codes.csv" {
		t.Errorf("unexpected filename %q", filename)
	}
	out := string(data)
	if !strings.HasPrefix(out, "id,user_id,promo_code,used,created_at,used_at\n") {
		t.Errorf("missing CSV header:\n%s", out)
	}
	if !strings.Contains(out, reply.Code) {
		t.Errorf("export missing issued code %s:\n%s", reply.Code, out)
	}
}
