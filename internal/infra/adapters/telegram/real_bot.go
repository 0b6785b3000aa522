package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-promo-bot/internal/application"
	"telegram-promo-bot/internal/config"
	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/ports/adapter"
	"telegram-promo-bot/internal/infra/logging"
	"telegram-promo-bot/internal/infra/metrics"
	"telegram-promo-bot/internal/usecase"
)

const checkSubCallback = "check_sub"

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.BotConfig
	facade   *application.BotFacade
	renderer adapter.BarcodeRenderer
	log      *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, renderer adapter.BarcodeRenderer, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if renderer == nil {
		return nil, errors.New("barcode renderer is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		renderer:      renderer,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// handleUpdate routes one inbound update. No failure may escape in a form
// that would stop the worker loop; everything is absorbed into a reply, a
// silent ignore, or a log line.
func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())

	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	tgID := msg.From.ID
	ctx = logging.WithTgID(ctx, tgID)
	log := logging.With(ctx, r.log)

	command := msg.Command()
	if command != "" {
		metrics.IncTelegramCommand("/" + command)
	} else {
		metrics.IncTelegramCommand("message")
	}

	switch command {
	case "start":
		return r.handleIssue(ctx, tgID)

	case "bar":
		// Unknown identities are ignored without a reply so the operator
		// set cannot be probed.
		if !r.facade.OperatorUC.Authorized(tgID) {
			return nil
		}
		text, err := r.facade.HandleToggleMode(ctx, tgID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil
			}
			log.Error().Err(err).Msg("toggle checking mode failed")
			return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
		}
		return r.SendMessage(ctx, tgID, text)

	case "count":
		return r.handleOperatorQuery(ctx, tgID, func(ctx context.Context) (string, error) {
			return r.facade.HandleCounts(ctx, tgID)
		})

	case "cu":
		args := msg.CommandArguments()
		return r.handleOperatorQuery(ctx, tgID, func(ctx context.Context) (string, error) {
			return r.facade.HandleMembershipOf(ctx, tgID, args)
		})

	case "export":
		if !r.operatorChecking(ctx, tgID) {
			return nil
		}
		filename, data, err := r.facade.HandleExport(ctx, tgID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil
			}
			log.Error().Err(err).Msg("export failed")
			return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
		}
		return r.SendDocument(ctx, tgID, filename, data)

	default:
		// Plain text from an operator in checking mode is a redemption lookup.
		if command != "" || strings.TrimSpace(msg.Text) == "" {
			return nil
		}
		if !r.operatorChecking(ctx, tgID) {
			return nil
		}
		labels := operatorLabels(msg.From)
		text, err := r.facade.HandleRedeem(ctx, tgID, msg.Text, labels)
		if err != nil {
			log.Error().Err(err).Msg("redemption lookup failed")
			return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
		}
		return r.SendMessage(ctx, tgID, text)
	}
}

// handleIssue runs the issuance decision and delivers the outcome: the code
// plus its barcode on success, a join prompt with a retry button when not
// subscribed, and deliberate silence when a code was already issued.
func (r *RealTelegramBotAdapter) handleIssue(ctx context.Context, tgID int64) error {
	log := logging.With(ctx, r.log)

	reply, err := r.facade.HandleIssue(ctx, tgID)
	if err != nil {
		log.Error().Err(err).Msg("issuance failed")
		return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
	}

	switch reply.Status {
	case usecase.AlreadyIssued:
		return nil

	case usecase.NotEligible:
		rows := [][]adapter.InlineButton{
			{{Text: "Get promo code", Data: checkSubCallback}},
		}
		text := "Sandwich bar BIGBI " + r.cfg.Channel +
			"\n\nWe post new items, discounts and promos in the channel." +
			"\n\nJoin and grab any sandwich as a gift! 🎁"
		return r.SendButtons(ctx, tgID, text, rows)

	default:
		return r.sendPromo(ctx, tgID, reply.Code)
	}
}

func (r *RealTelegramBotAdapter) sendPromo(ctx context.Context, tgID int64, code string) error {
	if err := r.SendMessage(ctx, tgID, "💚 Thank you!\nPick up your sandwich with this promo code:"); err != nil {
		return err
	}
	if err := r.SendMessage(ctx, tgID, code); err != nil {
		return err
	}
	png, err := r.renderer.Render(code)
	if err != nil {
		// The code itself was delivered; the barcode is a convenience.
		logging.With(ctx, r.log).Error().Err(err).Msg("barcode rendering failed")
		return nil
	}
	return r.SendPhoto(ctx, tgID, code+".png", png)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.From == nil {
		return errors.New("invalid callback query")
	}
	tgID := query.From.ID
	ctx = logging.WithTgID(ctx, tgID)

	if strings.TrimSpace(query.Data) != checkSubCallback {
		_, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return nil
	}

	reply, err := r.facade.HandleIssue(ctx, tgID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("issuance via callback failed")
		_, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
	}

	switch reply.Status {
	case usecase.NotEligible:
		_, err := r.bot.Request(tgbotapi.NewCallbackWithAlert(query.ID, "You are not subscribed 😔"))
		return err
	case usecase.AlreadyIssued:
		_, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return nil
	default:
		_, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		return r.sendPromo(ctx, tgID, reply.Code)
	}
}

// handleOperatorQuery gates the auxiliary queries the same way plain-text
// lookups are gated: only an authorized operator in checking mode gets a
// reply, everyone else is ignored.
func (r *RealTelegramBotAdapter) handleOperatorQuery(ctx context.Context, tgID int64, fn func(ctx context.Context) (string, error)) error {
	if !r.operatorChecking(ctx, tgID) {
		return nil
	}
	text, err := fn(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil
		}
		logging.With(ctx, r.log).Error().Err(err).Msg("operator query failed")
		return r.SendMessage(ctx, tgID, "Something went wrong. Please try again.")
	}
	return r.SendMessage(ctx, tgID, text)
}

func (r *RealTelegramBotAdapter) operatorChecking(ctx context.Context, tgID int64) bool {
	return r.facade.OperatorUC.Authorized(tgID) && r.facade.OperatorChecking(ctx, tgID)
}

func operatorLabels(from *tgbotapi.User) []string {
	var labels []string
	if from.UserName != "" {
		labels = append(labels, "@"+from.UserName)
	}
	full := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if full != "" {
		labels = append(labels, full)
	}
	return labels
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	msg := tgbotapi.NewMessage(tgID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons using tgbotapi.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				// safe fallback: use text as callback data
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			btns = append(btns, kb)
		}
		kbRows = append(kbRows, btns)
	}

	msg := tgbotapi.NewMessage(tgID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, tgID int64, filename string, png []byte) error {
	photo := tgbotapi.NewPhoto(tgID, tgbotapi.FileBytes{Name: filename, Bytes: png})
	_, err := r.bot.Send(photo)
	return err
}

func (r *RealTelegramBotAdapter) SendDocument(ctx context.Context, tgID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(tgID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	_, err := r.bot.Send(doc)
	return err
}
