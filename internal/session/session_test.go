package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beefsteak/internal/identity"
)

// mapJar is an in-memory cookie jar.
type mapJar map[string]string

func (j mapJar) Cookie(name string) string { return j[name] }
func (j mapJar) SetCookie(name, value string) { j[name] = value }
func (j mapJar) ClearCookie(name string) { delete(j, name) }

func TestTaskList_EncodeDecode(t *testing.T) {
	in := NewTaskList(12, []string{"Buy milk", "", "Pay bill"})

	raw, err := in.Encode()
	require.NoError(t, err)
	assert.NotContains(t, raw, `"`)
	assert.NotContains(t, raw, ",")

	out, err := DecodeTaskList(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTaskList_WireShape(t *testing.T) {
	value, err := NewTaskList(4, []string{"a", "", "c d"}).Encode()
	require.NoError(t, err)
	assert.NotContains(t, value, `"`)
	assert.NotContains(t, value, " ")

	raw, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_list_id":4,"task_names_array":["a","","c d"]}`, string(raw))
}

func TestDecodeTaskList_Rejects(t *testing.T) {
	tooMany, err := NewTaskList(1, []string{"a", "b", "c", "d"}).Encode()
	require.NoError(t, err)
	noID, err := NewTaskList(0, []string{"a"}).Encode()
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":    "",
		"not b64":  "%%%",
		"not json": "bm90IGpzb24",
		"too many": tooMany,
		"no id":    noID,
	} {
		_, err := DecodeTaskList(raw)
		assert.Error(t, err, name)
	}
}

func TestState_LastWriteWins(t *testing.T) {
	jar := mapJar{}
	s := New(jar)

	_, ok := s.Active()
	assert.False(t, ok)

	require.NoError(t, s.Start(NewTaskList(1, []string{"a"})))
	require.NoError(t, s.Start(NewTaskList(2, []string{"b", "c"})))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, uint(2), active.TaskListID)
	assert.Equal(t, []string{"b", "c"}, active.TaskNames)

	s.Clear()
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestState_FinishOverwritesLastCompleted(t *testing.T) {
	jar := mapJar{}
	s := New(jar)

	_, ok := s.LastCompleted()
	assert.False(t, ok)

	require.NoError(t, s.Start(NewTaskList(5, []string{"x"})))
	s.Finish(5)
	s.Finish(9)

	_, ok = s.Active()
	assert.False(t, ok)
	last, ok := s.LastCompleted()
	require.True(t, ok)
	assert.Equal(t, uint(9), last)
}

func TestIdentity(t *testing.T) {
	v := identity.NewVerifier("secret")

	t.Run("signed in", func(t *testing.T) {
		jar := mapJar{}
		group := uint(3)
		SignIn(jar, v, 7, &group)

		ident := ReadIdentity(jar, v)
		assert.True(t, ident.Authenticated)
		assert.Equal(t, uint(7), ident.UserID)
		require.NotNil(t, ident.GroupHint)
		assert.Equal(t, uint(3), *ident.GroupHint)
		assert.True(t, ident.Owns(7))
		assert.False(t, ident.Owns(8))
		assert.False(t, ident.Owns(0))
	})

	t.Run("tampered id", func(t *testing.T) {
		jar := mapJar{}
		SignIn(jar, v, 7, nil)
		jar[CookieUserID] = "8"

		ident := ReadIdentity(jar, v)
		assert.Equal(t, Anonymous, ident)
		assert.False(t, ident.Owns(8))
	})

	t.Run("signed out", func(t *testing.T) {
		jar := mapJar{}
		SignIn(jar, v, 7, nil)
		SignOut(jar)
		assert.Empty(t, jar)
		assert.Equal(t, Anonymous, ReadIdentity(jar, v))
	})
}
