package testhelpers

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeOpenAIChatReply(t *testing.T) {
	fake := NewFakeOpenAI(t)
	fake.OnChat(func(call ChatCall) Reply {
		return JSONReply(map[string]any{"ingredients": []string{"egg"}})
	})

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(fake.BaseURL()+"/chat/completions", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	calls := fake.ChatCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Text(), "hello")
}

func TestFakeOpenAIDelayStopsOnClientCancel(t *testing.T) {
	fake := NewFakeOpenAI(t)
	fake.OnChat(func(ChatCall) Reply {
		reply := JSONReply(map[string]any{"ingredients": []string{}})
		reply.Delay = 10 * time.Second
		return reply
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fake.BaseURL()+"/chat/completions",
		bytes.NewBufferString(`{"model":"m","messages":[]}`))
	require.NoError(t, err)

	start := time.Now()
	_, err = http.DefaultClient.Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
