package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-promo-bot/internal/domain/ports/adapter"
)

var _ adapter.MembershipChecker = (*ChannelMembershipChecker)(nil)

// memberStatuses are the chat-member states that count as "subscribed".
var memberStatuses = map[string]struct{}{
	"creator":       {},
	"administrator": {},
	"member":        {},
	"restricted":    {},
}

// ChannelMembershipChecker answers membership questions against a single
// channel via getChatMember. It keeps its own API client so it can be wired
// into usecases independently of the polling adapter.
type ChannelMembershipChecker struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	chatRef string // "@username" form, when the channel is configured by name
	log     *zerolog.Logger
}

// NewChannelMembershipChecker accepts the channel either as "@username" or as
// a numeric chat id.
func NewChannelMembershipChecker(token, channel string, logger *zerolog.Logger) (*ChannelMembershipChecker, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	c := &ChannelMembershipChecker{bot: bot, log: logger}
	if strings.HasPrefix(channel, "@") {
		c.chatRef = channel
	} else {
		id, err := strconv.ParseInt(channel, 10, 64)
		if err != nil {
			return nil, err
		}
		c.chatID = id
	}
	return c, nil
}

// IsMember fails open to false: an API rejection (user never seen by the
// channel, bot lacking rights, transient transport failure) reads as
// not-a-member, which is exactly how the issuance and redemption flows treat
// an unknown user.
func (c *ChannelMembershipChecker) IsMember(ctx context.Context, userID int64) bool {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID:             c.chatID,
			SuperGroupUsername: c.chatRef,
			UserID:             userID,
		},
	})
	if err != nil {
		c.log.Debug().Err(err).Int64("user_id", userID).Msg("getChatMember rejected, assuming not a member")
		return false
	}
	_, ok := memberStatuses[member.Status]
	return ok
}
