package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"beefsteak/internal/model"
	"beefsteak/internal/service"
)

const (
	menuLabelStats = "📊 Stats"
	menuLabelHelp  = "ℹ️ Help"
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot links Telegram chats to accounts and delivers progress digests.
type Bot struct {
	client    *tgbotapi.BotAPI
	api       sender
	accounts  *service.AccountService
	reminders *service.ReminderService
	siteURL   string
	now       func() time.Time
}

// New authorizes against the Bot API. siteURL, when set, is linked from replies.
func New(token string, accounts *service.AccountService, reminders *service.ReminderService, siteURL string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, accounts, reminders, siteURL)
	b.client = api
	return b, nil
}

func newBot(api sender, accounts *service.AccountService, reminders *service.ReminderService, siteURL string) *Bot {
	return &Bot{
		api:       api,
		accounts:  accounts,
		reminders: reminders,
		siteURL:   strings.TrimRight(siteURL, "/"),
		now:       time.Now,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no api client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("[warn] handle message: %v", err)
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		log.Printf("[info] command from chat %d: /%s", msg.Chat.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelStats:
		return b.handleStats(ctx, msg)
	case menuLabelHelp:
		return b.handleHelp(msg)
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Try /stats or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "unlink":
		return b.handleUnlink(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if user, err := b.accounts.ByTelegramChat(ctx, msg.Chat.ID); err == nil {
		name = user.UserName
	}
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I report how your task lists are going.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Commands:\n" +
	"• /link &lt;user&gt; &lt;password&gt; connect this chat to your account\n" +
	"• /unlink disconnect it again\n" +
	"• /stats your lifetime numbers and the last 7 days\n" +
	"• /help this list"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Help</b>\n" + commandList + "\n\nLinked chats also get a scheduled digest."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	userName, password, ok := parseLinkArgs(msg.CommandArguments())
	if !ok {
		return b.sendText(msg.Chat.ID, "Usage: /link &lt;user&gt; &lt;password&gt;")
	}

	// The password should not stay in the chat history.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		log.Printf("[warn] delete link message in chat %d: %v", msg.Chat.ID, err)
	}

	user, err := b.accounts.LinkTelegram(ctx, userName, password, msg.Chat.ID)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return b.sendText(msg.Chat.ID, "Invalid username or password.")
	case err != nil:
		return b.fail(msg.Chat.ID, "link", err)
	}

	log.Printf("[info] chat %d linked to user=%d", msg.Chat.ID, user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to <b>%s</b>. Try /stats.", escape(user.UserName)))
}

func (b *Bot) handleUnlink(ctx context.Context, msg *tgbotapi.Message) error {
	err := b.accounts.UnlinkTelegram(ctx, msg.Chat.ID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(msg.Chat.ID, "This chat is not linked to an account.")
	case err != nil:
		return b.fail(msg.Chat.ID, "unlink", err)
	}
	return b.sendText(msg.Chat.ID, "Unlinked. You will not get digests here any more.")
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.accounts.ByTelegramChat(ctx, msg.Chat.ID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(msg.Chat.ID, "Link your account first: /link &lt;user&gt; &lt;password&gt;")
	case err != nil:
		return b.fail(msg.Chat.ID, "stats", err)
	}

	text, err := b.digest(ctx, *user)
	if err != nil {
		return b.fail(msg.Chat.ID, "stats", err)
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyReports sends a digest to every linked account.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.accounts.Linked(ctx)
	if err != nil {
		return err
	}
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramChatID == nil {
			continue
		}
		text, err := b.digest(ctx, user)
		if err != nil {
			log.Printf("[warn] build digest for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendText(*user.TelegramChatID, text); err != nil {
			log.Printf("[warn] send digest to chat %d: %v", *user.TelegramChatID, err)
			continue
		}
		sent++
	}
	log.Printf("[info] digests sent: %d of %d", sent, len(users))
	return nil
}

func (b *Bot) digest(ctx context.Context, user model.User) (string, error) {
	text, err := b.reminders.Digest(ctx, user, b.now())
	if err != nil {
		return "", err
	}
	if b.siteURL != "" {
		text += fmt.Sprintf("\n\n<a href=\"%s/profile/view/%d\">Open profile</a>", b.siteURL, user.ID)
	}
	return text, nil
}

func (b *Bot) fail(chatID int64, op string, err error) error {
	log.Printf("[warn] %s for chat %d: %v", op, chatID, err)
	return b.sendText(chatID, "Something went wrong. Please try again later.")
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// parseLinkArgs splits "/link" arguments into a user name and a password.
// The password is everything after the first space, so it may contain spaces.
func parseLinkArgs(args string) (userName, password string, ok bool) {
	args = strings.TrimSpace(args)
	userName, password, found := strings.Cut(args, " ")
	password = strings.TrimSpace(password)
	if !found || userName == "" || password == "" {
		return "", "", false
	}
	return userName, password, true
}

func escape(s string) string {
	return html.EscapeString(s)
}
