package telegram

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiCall is one request received by the fake Bot API server.
type apiCall struct {
	method string
	fields map[string]string
	files  map[string]string
}

type fakeAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	failCalls map[string]string
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{method: path.Base(r.URL.Path), fields: map[string]string{}, files: map[string]string{}}
	if err := r.ParseMultipartForm(10 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			call.fields[k] = v[0]
		}
		for k, fhs := range r.MultipartForm.File {
			f, err := fhs[0].Open()
			if err == nil {
				data, _ := io.ReadAll(f)
				_ = f.Close()
				call.files[k] = fhs[0].Filename + ":" + string(data)
			}
		}
	}

	a.mu.Lock()
	a.calls = append(a.calls, call)
	failure, fail := a.failCalls[call.method]
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"`+failure+`"}`)
		return
	}

	switch call.method {
	case "deleteMessage":
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	case "sendAudio":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":78,"date":1,"chat":{"id":42,"type":"private"}}}`)
	case "sendDocument":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":79,"date":1,"chat":{"id":-100,"type":"channel"}}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":77,"date":1,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	}
}

func (a *fakeAPI) last(t *testing.T) apiCall {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.calls)
	return a.calls[len(a.calls)-1]
}

func newTestGateway(t *testing.T, api *fakeAPI, fs afero.Fs) *Gateway {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := NewTelegramBot("123456:TEST", log, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return NewGateway(log, b, fs)
}

func TestGatewaySendText(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	gw := newTestGateway(t, api, afero.NewMemMapFs())

	id, err := gw.SendText(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, 77, id)

	call := api.last(t)
	assert.Equal(t, "sendMessage", call.method)
	assert.Equal(t, "42", call.fields["chat_id"])
	assert.Equal(t, "hello", call.fields["text"])
}

func TestGatewaySendAudio(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "downloads/abc.mp3", []byte("ID3"), 0o644))
	api := &fakeAPI{}
	gw := newTestGateway(t, api, fs)

	id, err := gw.SendAudio(context.Background(), 42, "downloads/abc.mp3", "abc.mp3")
	require.NoError(t, err)
	assert.Equal(t, 78, id)

	call := api.last(t)
	assert.Equal(t, "sendAudio", call.method)
	assert.Equal(t, "abc.mp3", call.fields["title"])
	assert.Equal(t, "abc.mp3:ID3", call.files["audio"])
}

func TestGatewaySendAudioMissingFile(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	gw := newTestGateway(t, api, afero.NewMemMapFs())

	_, err := gw.SendAudio(context.Background(), 42, "downloads/missing.mp3", "missing.mp3")
	assert.Error(t, err)
	assert.Empty(t, api.calls)
}

func TestGatewayDeleteMessage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{failCalls: map[string]string{}}
	gw := newTestGateway(t, api, afero.NewMemMapFs())

	require.NoError(t, gw.DeleteMessage(context.Background(), 42, 5))
	call := api.last(t)
	assert.Equal(t, "deleteMessage", call.method)
	assert.Equal(t, "5", call.fields["message_id"])

	api.mu.Lock()
	api.failCalls["deleteMessage"] = "Bad Request: message can't be deleted"
	api.mu.Unlock()

	err := gw.DeleteMessage(context.Background(), 42, 6)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "message 6"))
}

func TestGatewaySendDocument(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	gw := newTestGateway(t, api, afero.NewMemMapFs())

	err := gw.SendDocument(context.Background(), "@admin", "users.txt", strings.NewReader("1\n2\n"), "Users: 2")
	require.NoError(t, err)

	call := api.last(t)
	assert.Equal(t, "sendDocument", call.method)
	assert.Equal(t, "@admin", call.fields["chat_id"])
	assert.Equal(t, "Users: 2", call.fields["caption"])
	assert.Equal(t, "users.txt:1\n2\n", call.files["document"])
}

func TestNewTelegramBotRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramBot("", nil)
	assert.Error(t, err)
}

func TestRegisterHandlersRejectsNilBot(t *testing.T) {
	t.Parallel()

	assert.Error(t, RegisterHandlers(nil, nil, nil))
}
