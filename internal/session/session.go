// Package session models the advisory state a client carries in cookies:
// who it claims to be, the list it is working on and the last list it finished.
// Nothing here is authoritative; callers re-read storage before acting on it.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Cookie names shared with the transport.
const (
	CookieUserID       = "userID"
	CookieUserIDHash   = "userIdHash"
	CookieGroupID      = "groupID"
	CookieSessionTasks = "sessionTasks"
	CookieLastSession  = "lastSession"
)

// MaxTasks is the number of task slots a list offers.
const MaxTasks = 3

// Jar reads and writes cookies for the current request.
type Jar interface {
	Cookie(name string) string
	SetCookie(name, value string)
	ClearCookie(name string)
}

// TaskList is the in-progress list a client holds. TaskNames keeps the submitted
// slots, blank placeholders included.
type TaskList struct {
	TaskListID uint     `json:"task_list_id"`
	TaskNames  []string `json:"task_names_array"`
}

// NewTaskList builds the payload once the list and its tasks are stored.
func NewTaskList(taskListID uint, taskNames []string) TaskList {
	names := make([]string, len(taskNames))
	copy(names, taskNames)
	return TaskList{TaskListID: taskListID, TaskNames: names}
}

// Encode serialises the payload into a cookie-safe string.
func (l TaskList) Encode() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode session tasks: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeTaskList parses a cookie value produced by Encode.
func DecodeTaskList(raw string) (TaskList, error) {
	var l TaskList
	if raw == "" {
		return l, errors.New("empty session tasks")
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return l, fmt.Errorf("decode session tasks: %w", err)
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("decode session tasks: %w", err)
	}
	if l.TaskListID == 0 {
		return l, errors.New("session tasks without list id")
	}
	if len(l.TaskNames) > MaxTasks {
		return l, fmt.Errorf("session tasks hold %d names", len(l.TaskNames))
	}
	return l, nil
}

// State is the session model for one request.
type State struct {
	jar Jar
}

func New(jar Jar) *State {
	return &State{jar: jar}
}

// Active returns the list in progress. A missing or unreadable cookie means none.
func (s *State) Active() (TaskList, bool) {
	l, err := DecodeTaskList(s.jar.Cookie(CookieSessionTasks))
	if err != nil {
		return TaskList{}, false
	}
	return l, true
}

// Start replaces any list in progress with l.
func (s *State) Start(l TaskList) error {
	value, err := l.Encode()
	if err != nil {
		return err
	}
	s.jar.SetCookie(CookieSessionTasks, value)
	return nil
}

// Clear drops the list in progress.
func (s *State) Clear() {
	s.jar.ClearCookie(CookieSessionTasks)
}

// Finish drops the list in progress and remembers listID as the last result.
func (s *State) Finish(listID uint) {
	s.Clear()
	s.jar.SetCookie(CookieLastSession, strconv.FormatUint(uint64(listID), 10))
}

// LastCompleted returns the list most recently finished on this client.
func (s *State) LastCompleted() (uint, bool) {
	id, err := strconv.ParseUint(s.jar.Cookie(CookieLastSession), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
