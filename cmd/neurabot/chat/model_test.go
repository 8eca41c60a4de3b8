package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurabot/cmd/neurabot/config"
	"neurabot/internal/botclient"
	"neurabot/internal/session"
	"neurabot/internal/speech"
	"neurabot/internal/storage"
	"neurabot/internal/tasks"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "neurabot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m, err := New(Options{
		Store:        session.NewStore(db),
		Tasks:        tasks.NewList(db),
		Client:       botclient.New("http://127.0.0.1:1"),
		DB:           db,
		Caps:         speech.Capabilities{Synthesis: speech.Unavailable, Recognition: speech.Unavailable},
		Config:       config.Default(),
		QuickReplies: config.DefaultQuickReplies,
	})
	require.NoError(t, err)

	m.resize(100, 30)
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSubmitAppendsUserMessageAndShowsPending(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	require.Len(t, sess.Messages, 1)

	m.input.SetValue("  hello bot  ")
	_, cmd := m.handleSubmit()
	assert.NotNil(t, cmd)

	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "hello bot", sess.Messages[1].Content)
	assert.Equal(t, session.SenderUser, sess.Messages[1].Sender)
	assert.Equal(t, "hello bot", sess.Title)
	assert.True(t, m.renderer.PendingShown())
	assert.True(t, m.isLoading)
	assert.Empty(t, m.input.Value())
}

func TestSubmitEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()

	m.input.SetValue("   ")
	_, cmd := m.handleSubmit()
	assert.Nil(t, cmd)
	assert.Len(t, sess.Messages, 1)
	assert.False(t, m.isLoading)
}

func TestSubmitBlockedWhileLoading(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	m.isLoading = true

	m.input.SetValue("second message")
	m.handleSubmit()
	assert.Len(t, sess.Messages, 1, "submission disabled while a request is in flight")
	assert.Equal(t, "second message", m.input.Value(),
		"blocked input is preserved so the user can resend")
}

func TestCommandsStillRunWhileLoading(t *testing.T) {
	m := newTestModel(t)
	m.isLoading = true

	m.input.SetValue("/theme ocean")
	m.handleSubmit()
	assert.Equal(t, "ocean", m.styles.Theme.Name)
	assert.Empty(t, m.input.Value())
}

func TestReplyAppendsBotMessage(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	m.isLoading = true
	m.renderer.ShowPending()

	m.Update(replyMsg{
		sessionID: sess.ID,
		reply:     &botclient.Reply{Reply: "here is an answer"},
	})

	assert.False(t, m.isLoading)
	assert.False(t, m.renderer.PendingShown())
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "here is an answer", sess.Messages[1].Content)
	assert.Equal(t, session.SenderBot, sess.Messages[1].Sender)
}

func TestReplyErrorAppendsFallback(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	m.isLoading = true

	m.Update(replyMsg{
		sessionID: sess.ID,
		err:       &botclient.Error{Kind: botclient.KindTransport, Op: "send"},
	})

	require.Len(t, sess.Messages, 2)
	assert.Equal(t, fallbackReplyText, sess.Messages[1].Content)
	assert.Equal(t, session.SenderBot, sess.Messages[1].Sender)
}

func TestReplyTaskSideChannel(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()

	m.Update(replyMsg{
		sessionID: sess.ID,
		reply:     &botclient.Reply{Reply: "added it", Task: "water the plants", ShowTasks: true},
	})

	got := m.tasks.All()
	require.Len(t, got, 1)
	assert.Equal(t, "water the plants", got[0].Text)

	// The reply plus the rendered task summary.
	require.Len(t, sess.Messages, 3)
	assert.Contains(t, sess.Messages[2].Content, "water the plants")
}

func TestStaleReplyUpdatesStoreNotViewport(t *testing.T) {
	m := newTestModel(t)
	first := m.store.Active()
	second, err := m.store.Create()
	require.NoError(t, err)

	m.Update(replyMsg{
		sessionID: first.ID,
		reply:     &botclient.Reply{Reply: "late answer"},
	})

	// The reply landed in its original session.
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "late answer", first.Messages[1].Content)
	// The active session is untouched.
	assert.Equal(t, second.ID, m.store.ActiveID())
	assert.Len(t, second.Messages, 1)
}

func TestReplyForDeletedSessionIsDropped(t *testing.T) {
	m := newTestModel(t)
	first := m.store.Active()
	_, err := m.store.Create()
	require.NoError(t, err)
	_, err = m.store.Delete(first.ID)
	require.NoError(t, err)

	// Must not panic or resurrect the session.
	m.Update(replyMsg{
		sessionID: first.ID,
		reply:     &botclient.Reply{Reply: "too late"},
	})
	assert.Equal(t, 1, m.store.Len())
}

func TestUploadFailureAppendsFallback(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	m.isLoading = true

	m.Update(uploadMsg{
		sessionID: sess.ID,
		err:       &botclient.Error{Kind: botclient.KindStatus, Op: "upload"},
	})

	require.Len(t, sess.Messages, 2)
	assert.Equal(t, uploadFailedText, sess.Messages[1].Content)
}

func TestUploadSuccessAppendsConfirmation(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()

	m.Update(uploadMsg{sessionID: sess.ID, filename: "notes.txt"})

	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "✅ File processed: notes.txt", sess.Messages[1].Content)
}

func TestClearRequiresConfirmation(t *testing.T) {
	m := newTestModel(t)
	sess := m.store.Active()
	_, err := m.store.Append(sess.ID, "keep me safe", session.SenderUser, true)
	require.NoError(t, err)

	m.handleCommand("/clear")
	require.NotNil(t, m.confirm)

	// Declining leaves everything untouched.
	m.Update(keyRunes("n"))
	assert.Nil(t, m.confirm)
	assert.Len(t, sess.Messages, 2)

	m.handleCommand("/clear")
	m.Update(keyRunes("y"))
	assert.Empty(t, sess.Messages)
	assert.Equal(t, "keep me safe", sess.Title)
}

func TestDeleteConfirmationFlow(t *testing.T) {
	m := newTestModel(t)
	first := m.store.Active()

	m.handleCommand("/delete")
	require.NotNil(t, m.confirm)
	m.Update(keyRunes("y"))

	assert.Equal(t, 1, m.store.Len())
	assert.NotEqual(t, first.ID, m.store.ActiveID())
}

func TestUnknownCommandNotifies(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.handleCommand("/frobnicate")
	assert.NotNil(t, cmd)
	assert.Equal(t, "Unknown command, try /help", m.notice)
}

func TestThemeCommandPersists(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/theme ocean")
	assert.Equal(t, "ocean", m.styles.Theme.Name)

	var stored string
	ok, err := m.db.Get(storage.KeyTheme, &stored)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ocean", stored)
}

func TestProfileCommandPersists(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/profile name Grace Hopper")
	assert.Equal(t, "Grace Hopper", m.profile.Name)

	m.handleCommand("/profile avatar fox")
	assert.Equal(t, "fox", m.profile.Avatar)

	var stored Profile
	ok, err := m.db.Get(storage.KeyUser, &stored)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Grace Hopper", stored.Name)
	assert.Equal(t, "fox", stored.Avatar)
}

func TestVoiceUnavailableIsHiddenBehindNotice(t *testing.T) {
	m := newTestModel(t)

	m.handleCommand("/voice")
	assert.False(t, m.listening)
	assert.Equal(t, "Voice input is not available", m.notice)
}

func TestStoppedVoiceCaptureStaysQuiet(t *testing.T) {
	m := newTestModel(t)
	m.listening = true
	m.notify("Stopped listening")

	m.Update(transcriptMsg{err: context.Canceled})
	assert.False(t, m.listening)
	assert.Equal(t, "Stopped listening", m.notice,
		"a user-initiated stop must not report a failure")
}

func TestFailedVoiceCaptureNotifies(t *testing.T) {
	m := newTestModel(t)
	m.listening = true

	m.Update(transcriptMsg{err: errors.New("mic exploded")})
	assert.False(t, m.listening)
	assert.Equal(t, "Voice input failed", m.notice)
}

func TestCorruptPreferencesFallBackToDefaults(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "neurabot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Wrong-typed rows must not block startup.
	require.NoError(t, db.Put(storage.KeyTheme, 42))
	require.NoError(t, db.Put(storage.KeyUser, "not a profile"))

	m, err := New(Options{
		Store:  session.NewStore(db),
		Tasks:  tasks.NewList(db),
		Client: botclient.New("http://127.0.0.1:1"),
		DB:     db,
		Config: config.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", m.styles.Theme.Name)
	assert.Equal(t, "You", m.profile.Name)
}

func TestNoticeExpiry(t *testing.T) {
	m := newTestModel(t)

	m.notify("first")
	firstID := m.noticeID
	m.notify("second")

	// The stale timer must not clear the newer notice.
	m.Update(noticeExpiredMsg{id: firstID})
	assert.Equal(t, "second", m.notice)

	m.Update(noticeExpiredMsg{id: m.noticeID})
	assert.Empty(t, m.notice)
}
