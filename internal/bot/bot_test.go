package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"beefsteak/internal/model"
	"beefsteak/internal/repository"
	"beefsteak/internal/repository/repotest"
	"beefsteak/internal/service"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu       sync.Mutex
	messages []sentMessage
	deleted  []int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, sentMessage{chatID: msg.ChatID, text: msg.Text})
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		f.deleted = append(f.deleted, del.MessageID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type fixture struct {
	bot      *Bot
	api      *fakeSender
	accounts *service.AccountService
	lists    *repository.TaskListRepository
	tasks    *repository.TaskRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	users := repository.NewUserRepository(db)
	lists := repository.NewTaskListRepository(db)
	tasks := repository.NewTaskRepository(db)

	f := &fixture{
		api:      &fakeSender{},
		accounts: service.NewAccountService(users, bcrypt.MinCost),
		lists:    lists,
		tasks:    tasks,
	}
	stats := service.NewStatsService(users, lists, tasks, nil)
	f.bot = newBot(f.api, f.accounts, service.NewReminderService(stats), "http://localhost:3004/")

	_, err := f.accounts.Register(context.Background(), service.RegisterInput{UserName: "alice", Password: "open sesame"})
	require.NoError(t, err)
	return f
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: chatID, FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func TestParseLinkArgs(t *testing.T) {
	user, pass, ok := parseLinkArgs("  alice open sesame ")
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "open sesame", pass)

	for _, args := range []string{"", "alice", "alice   "} {
		_, _, ok := parseLinkArgs(args)
		assert.False(t, ok, args)
	}
}

func TestLinkStatsUnlink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(555)

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/stats")))
	assert.Contains(t, f.api.last(t).text, "Link your account first")

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/link alice wrong")))
	assert.Contains(t, f.api.last(t).text, "Invalid username or password")

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/link alice open sesame")))
	assert.Contains(t, f.api.last(t).text, "Linked to <b>alice</b>")
	assert.Equal(t, []int{7, 7}, f.api.deleted)

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/stats")))
	msg := f.api.last(t)
	assert.Equal(t, chat, msg.chatID)
	assert.Contains(t, msg.text, "Progress for alice")
	assert.Contains(t, msg.text, "No lists yet")
	assert.Contains(t, msg.text, "http://localhost:3004/profile/view/")

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/start")))
	assert.Contains(t, f.api.last(t).text, "Hi, alice!")

	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/unlink")))
	assert.Contains(t, f.api.last(t).text, "Unlinked")
	require.NoError(t, f.bot.handleMessage(ctx, command(chat, "/unlink")))
	assert.Contains(t, f.api.last(t).text, "not linked")
}

func TestHandleMessage_Text(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1, Type: "private"},
		Text: menuLabelHelp,
	}

	require.NoError(t, f.bot.handleMessage(ctx, msg))
	assert.Contains(t, f.api.last(t).text, "/link")

	msg.Text = "hello"
	require.NoError(t, f.bot.handleMessage(ctx, msg))
	assert.Contains(t, f.api.last(t).text, "did not get that")

	require.NoError(t, f.bot.handleMessage(ctx, command(1, "/nope")))
	assert.Contains(t, f.api.last(t).text, "Unknown command")
}

func TestSendDailyReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.LinkTelegram(ctx, "alice", "open sesame", 900)
	require.NoError(t, err)
	bob, err := f.accounts.Register(ctx, service.RegisterInput{UserName: "bob", Password: "pw"})
	require.NoError(t, err)

	alice, err := f.accounts.ByTelegramChat(ctx, 900)
	require.NoError(t, err)
	now := time.Now().UTC()
	list := &model.TaskList{Name: "L", AssignedUser: &alice.ID, CompletionStatus: model.ListPending, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, f.lists.CreateWithTasks(ctx, list, []string{"a"}))
	require.NoError(t, f.tasks.MarkCompleted(ctx, list.Tasks[0].ID, now.Add(-50*time.Minute)))

	require.NoError(t, f.bot.SendDailyReports(ctx))

	require.Len(t, f.api.messages, 1, "only linked users get a digest")
	msg := f.api.messages[0]
	assert.Equal(t, int64(900), msg.chatID)
	assert.Contains(t, msg.text, "0 of 1 lists completed")
	assert.Contains(t, msg.text, "Last 24h: 1 tasks · 10m00s")
	assert.NotZero(t, bob.ID)
}

func TestSendDailyReports_Cancelled(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.LinkTelegram(context.Background(), "alice", "open sesame", 900)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.bot.SendDailyReports(ctx), context.Canceled)
	assert.Empty(t, f.api.messages)
}
