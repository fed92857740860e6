package notifier

import (
	"context"
	"strconv"
	"strings"

	"ETFDesk/internal/analysis"
	"ETFDesk/internal/instrument"
	"ETFDesk/internal/session"
)

// Commands routes chat messages to the analysis service, keeping one
// session state per chat.
type Commands struct {
	Service  *analysis.Service
	Sessions *session.Store
}

// NewCommands creates a command router.
func NewCommands(svc *analysis.Service, sessions *session.Store) *Commands {
	return &Commands{Service: svc, Sessions: sessions}
}

func chatKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// Handle implements CommandHandler.
func (c *Commands) Handle(ctx context.Context, chatID int64, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return HelpText
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch {
	case cmd == "/analyze":
		st := c.Sessions.Get(chatKey(chatID))
		code := st.Current
		if len(fields) > 1 {
			code = fields[1]
		}
		if code == "" {
			return HelpText
		}
		return c.analyze(ctx, chatID, code)
	case cmd == "/history":
		return FormatHistory(c.Sessions.Get(chatKey(chatID)).History)
	case len(fields) == 1 && instrument.ValidateCode(cmd) == nil:
		return c.analyze(ctx, chatID, cmd)
	default:
		return HelpText
	}
}

func (c *Commands) analyze(ctx context.Context, chatID int64, code string) string {
	key := chatKey(chatID)
	st, v := c.Service.Handle(ctx, c.Sessions.Get(key), code)
	c.Sessions.Put(key, st)
	if v.Failed() {
		return FormatError(v.Code, v.Message)
	}
	return FormatAnalysis(v.Analysis)
}
