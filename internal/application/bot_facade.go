package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-promo-bot/internal/usecase"
)

// BotFacade composes usecases into high-level bot commands.
// Facade methods return reply strings so the Telegram adapter just forwards
// them to the chat; issuance and export additionally return payloads the
// adapter renders (barcode photo, CSV document).
type BotFacade struct {
	IssueUC    usecase.IssuanceUseCase
	RedeemUC   usecase.RedemptionUseCase
	OperatorUC usecase.OperatorUseCase
}

func NewBotFacade(issueUC usecase.IssuanceUseCase, redeemUC usecase.RedemptionUseCase, operatorUC usecase.OperatorUseCase) *BotFacade {
	return &BotFacade{
		IssueUC:    issueUC,
		RedeemUC:   redeemUC,
		OperatorUC: operatorUC,
	}
}

// IssueReply is what the transport needs to deliver an issuance outcome.
// Code is set only when Status is usecase.Issued.
type IssueReply struct {
	Status usecase.IssueStatus
	Code   string
}

// HandleIssue runs the issuance decision for /start and for the
// check-subscription callback; both paths are deliberately identical.
func (b *BotFacade) HandleIssue(ctx context.Context, tgID int64) (*IssueReply, error) {
	pc, status, err := b.IssueUC.Issue(ctx, tgID)
	if err != nil {
		return nil, fmt.Errorf("issue promo code: %w", err)
	}
	reply := &IssueReply{Status: status}
	if pc != nil {
		reply.Code = pc.Code
	}
	return reply, nil
}

// HandleRedeem resolves operator-entered text as a promo code and formats the
// composed status message. operatorLabels are best-effort display lines
// (username, full name) supplied by the transport.
func (b *BotFacade) HandleRedeem(ctx context.Context, operatorID int64, text string, operatorLabels []string) (string, error) {
	report, err := b.RedeemUC.Resolve(ctx, text)
	if err != nil {
		return "", fmt.Errorf("resolve promo code: %w", err)
	}

	if !report.Found {
		return fmt.Sprintf("🔴 Promo code %s not found.", report.Code), nil
	}

	parts := []string{report.Code}
	for _, l := range operatorLabels {
		if l != "" {
			parts = append(parts, l)
		}
	}
	if len(parts) > 0 {
		parts[len(parts)-1] += "\n"
	}

	if report.UsedBefore {
		parts = append(parts, "🔴 Already used")
	} else {
		parts = append(parts, "🟢 Valid")
	}
	if report.Subscribed {
		parts = append(parts, "🟢 Subscribed")
	} else {
		parts = append(parts, "🔴 Not subscribed")
	}
	if report.Redeemed {
		parts = append(parts, "🟢 Hand it over!")
	}

	return strings.Join(parts, "\n"), nil
}

// HandleToggleMode flips the operator's checking mode and reports the new state.
func (b *BotFacade) HandleToggleMode(ctx context.Context, operatorID int64) (string, error) {
	checking, err := b.OperatorUC.Toggle(ctx, operatorID)
	if err != nil {
		return "", err
	}
	if checking {
		return "Checking mode activated 🫡", nil
	}
	return "Checking mode deactivated 🫡", nil
}

func (b *BotFacade) HandleCounts(ctx context.Context, operatorID int64) (string, error) {
	used, unused, err := b.OperatorUC.Counts(ctx, operatorID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d used\n%d active", used, unused), nil
}

// HandleMembershipOf answers /cu <user_id>.
func (b *BotFacade) HandleMembershipOf(ctx context.Context, operatorID int64, args string) (string, error) {
	userID, convErr := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if convErr != nil || userID <= 0 {
		return "Usage: /cu <user_id>", nil
	}
	member, err := b.OperatorUC.MembershipOf(ctx, operatorID, userID)
	if err != nil {
		return "", err
	}
	status := "🔴 Not subscribed"
	if member {
		status = "🟢 Subscribed"
	}
	return fmt.Sprintf("%d\n%s", userID, status), nil
}

// HandleExport dumps the promo-code table as CSV for offline inspection.
func (b *BotFacade) HandleExport(ctx context.Context, operatorID int64) (filename string, data []byte, err error) {
	rows, err := b.OperatorUC.Export(ctx, operatorID)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "user_id", "promo_code", "used", "created_at", "used_at"})
	for _, r := range rows {
		usedAt := ""
		if r.UsedAt != nil {
			usedAt = r.UsedAt.UTC().Format(time.RFC3339)
		}
		_ = w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.UserID, 10),
			r.Code,
			strconv.FormatBool(r.Used),
			r.CreatedAt.UTC().Format(time.RFC3339),
			usedAt,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, err
	}
	return "promo_codes.csv", buf.Bytes(), nil
}

// OperatorChecking is the routing predicate for plain operator text. Any
// error (unauthorized included) reads as not-checking, so unknown identities
// are ignored without a reply.
func (b *BotFacade) OperatorChecking(ctx context.Context, operatorID int64) bool {
	checking, err := b.OperatorUC.IsChecking(ctx, operatorID)
	if err != nil {
		return false
	}
	return checking
}
