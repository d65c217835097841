package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAdministrators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/getChatAdministrators", r.URL.Path)
		require.Equal(t, "-100", r.URL.Query().Get("chat_id"))
		w.Write([]byte(`{"ok":true,"result":[
            {"user":{"id":1,"is_bot":false,"username":"alice"},"status":"creator"},
            {"user":{"id":2,"is_bot":false,"username":"bob"},"status":"administrator"}
        ]}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL+"/bottest-token"))

	admins, err := client.GetAdministrators(context.Background(), -100)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	require.Contains(t, admins, int64(1))
	require.Contains(t, admins, int64(2))
}

func TestGetAdministratorsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL+"/bottest-token"))

	_, err := client.GetAdministrators(context.Background(), -100)
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestGetAdministratorsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL+"/bottest-token"))

	_, err := client.GetAdministrators(context.Background(), -100)
	require.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	var gotText, gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		gotText = r.URL.Query().Get("text")
		gotMode = r.URL.Query().Get("parse_mode")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL+"/bottest-token"))

	require.NoError(t, client.SendMessage(context.Background(), -100, "hello"))
	require.Equal(t, "hello", gotText)
	require.Equal(t, "HTML", gotMode)
}

func TestGetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		require.Equal(t, "7", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"ok":true,"result":[
            {"update_id":7,"message":{"message_id":1,"from":{"id":42,"is_bot":false},"chat":{"id":-100,"type":"supergroup"},"text":"hi"}}
        ]}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL+"/bottest-token"))

	updates, err := client.GetUpdates(context.Background(), 7, 30)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, int64(42), updates[0].Message.From.ID)
	require.Equal(t, "hi", updates[0].Message.Text)
}
