package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"beefsteak/internal/metrics"
	"beefsteak/internal/model"
	"beefsteak/internal/repository"
	"beefsteak/internal/repository/repotest"
	"beefsteak/internal/session"
)

// memCache is an in-memory Cache that round-trips values through JSON like Redis does.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fixture struct {
	db     *gorm.DB
	users  *repository.UserRepository
	groups *repository.GroupRepository
	lists  *repository.TaskListRepository
	tasks  *repository.TaskRepository

	cache     *memCache
	registry  *prometheus.Registry
	stats     *StatsService
	lifecycle *TaskService
	group     *GroupService
	accounts  *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := repotest.NewDB(t)
	f := &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		groups:   repository.NewGroupRepository(db),
		lists:    repository.NewTaskListRepository(db),
		tasks:    repository.NewTaskRepository(db),
		cache:    newMemCache(),
		registry: prometheus.NewRegistry(),
	}
	f.stats = NewStatsService(f.users, f.lists, f.tasks, f.cache)
	f.lifecycle = NewTaskService(f.lists, f.tasks, metrics.New(f.registry), f.stats, DefaultCompletionWindow)
	f.group = NewGroupService(f.groups, f.users, f.lists)
	f.accounts = NewAccountService(f.users, bcrypt.MinCost)
	return f
}

// signedIn stores a user and returns the identity its verified cookies would yield.
func (f *fixture) signedIn(t *testing.T, name string) session.Identity {
	t.Helper()
	user := &model.User{UserName: name, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return session.Identity{UserID: user.ID, Authenticated: true}
}

func (f *fixture) submit(t *testing.T, who session.Identity, name string, tasks ...string) *model.TaskList {
	t.Helper()
	list, err := f.lifecycle.SubmitList(context.Background(), who, SubmitInput{Name: name, TaskNames: tasks})
	require.NoError(t, err)
	return list
}

// counter reads a counter from the fixture registry. labels are name/value pairs.
func (f *fixture) counter(t *testing.T, name string, labels ...string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, m := range family.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				found := false
				for _, pair := range m.GetLabel() {
					if pair.GetName() == labels[i] && pair.GetValue() == labels[i+1] {
						found = true
					}
				}
				if !found {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
