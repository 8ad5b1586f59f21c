package testhelpers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pageza/fridge2fork/backend/config"
)

// Reply is what the fake provider sends back for one call
type Reply struct {
	Status int
	// Content is the assistant message for chat calls or the b64_json
	// payload for image calls.
	Content string
	Delay   time.Duration
}

// JSONReply encodes v as the assistant message content
func JSONReply(v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Status: http.StatusOK, Content: string(data)}
}

// ErrorReply makes the fake provider fail with status
func ErrorReply(status int, message string) Reply {
	return Reply{Status: status, Content: message}
}

// ChatCall is a decoded chat completion request
type ChatCall struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string          `json:"name"`
			Strict bool            `json:"strict"`
			Schema json.RawMessage `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// Text joins every text fragment of every message
func (c ChatCall) Text() string {
	var b strings.Builder
	for _, m := range c.Messages {
		var s string
		if err := json.Unmarshal(m.Content, &s); err == nil {
			b.WriteString(s)
			b.WriteString("\n")
			continue
		}
		var parts []contentPart
		if err := json.Unmarshal(m.Content, &parts); err == nil {
			for _, p := range parts {
				if p.Type == "text" {
					b.WriteString(p.Text)
					b.WriteString("\n")
				}
			}
		}
	}
	return b.String()
}

// ImageURLs returns every image_url part sent with the call
func (c ChatCall) ImageURLs() []string {
	var urls []string
	for _, m := range c.Messages {
		var parts []contentPart
		if err := json.Unmarshal(m.Content, &parts); err != nil {
			continue
		}
		for _, p := range parts {
			if p.ImageURL != nil {
				urls = append(urls, p.ImageURL.URL)
			}
		}
	}
	return urls
}

// FakeOpenAI is an httptest server speaking the subset of the OpenAI API
// used by the service package.
type FakeOpenAI struct {
	Server *httptest.Server

	mu     sync.Mutex
	chat   func(ChatCall) Reply
	image  func(openai.ImageRequest) Reply
	chats  []ChatCall
	images []openai.ImageRequest
}

// NewFakeOpenAI starts a fake provider that is closed when t finishes
func NewFakeOpenAI(t *testing.T) *FakeOpenAI {
	t.Helper()
	f := &FakeOpenAI{
		chat:  func(ChatCall) Reply { return ErrorReply(http.StatusInternalServerError, "no chat handler") },
		image: func(openai.ImageRequest) Reply { return ErrorReply(http.StatusInternalServerError, "no image handler") },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", f.handleChat)
	mux.HandleFunc("/v1/images/generations", f.handleImage)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the value for OPENAI_BASE_URL
func (f *FakeOpenAI) BaseURL() string {
	return f.Server.URL + "/v1"
}

// OnChat replaces the chat completion handler
func (f *FakeOpenAI) OnChat(fn func(ChatCall) Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chat = fn
}

// OnImage replaces the image generation handler
func (f *FakeOpenAI) OnImage(fn func(openai.ImageRequest) Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.image = fn
}

// ChatCalls returns the chat requests received so far
func (f *FakeOpenAI) ChatCalls() []ChatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatCall(nil), f.chats...)
}

// ImageCalls returns the image requests received so far
func (f *FakeOpenAI) ImageCalls() []openai.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openai.ImageRequest(nil), f.images...)
}

func (f *FakeOpenAI) handleChat(w http.ResponseWriter, r *http.Request) {
	var call ChatCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	f.chats = append(f.chats, call)
	handler := f.chat
	f.mu.Unlock()

	reply := handler(call)
	if !waitOrDone(r, reply.Delay) {
		return
	}
	if reply.Status != http.StatusOK {
		writeError(w, reply.Status, reply.Content)
		return
	}

	writeJSON(w, openai.ChatCompletionResponse{
		ID:      "chatcmpl-test",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   call.Model,
		Choices: []openai.ChatCompletionChoice{{
			Index: 0,
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: reply.Content,
			},
			FinishReason: openai.FinishReasonStop,
		}},
	})
}

func (f *FakeOpenAI) handleImage(w http.ResponseWriter, r *http.Request) {
	var req openai.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	f.images = append(f.images, req)
	handler := f.image
	f.mu.Unlock()

	reply := handler(req)
	if !waitOrDone(r, reply.Delay) {
		return
	}
	if reply.Status != http.StatusOK {
		writeError(w, reply.Status, reply.Content)
		return
	}

	writeJSON(w, openai.ImageResponse{
		Created: time.Now().Unix(),
		Data:    []openai.ImageResponseDataInner{{B64JSON: reply.Content}},
	})
}

func waitOrDone(r *http.Request, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-r.Context().Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "test_error",
		},
	})
}

// NewTestConfig returns a config pointing at baseURL with scratch
// directories under a fresh temp dir.
func NewTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Environment:      config.Test,
		ServerHost:       "127.0.0.1",
		ServerPort:       "0",
		OpenAIAPIKey:     "sk-test",
		OpenAIBaseURL:    baseURL,
		ChatModel:        "gpt-4o-mini",
		ImageModel:       "gpt-image-1",
		ImageSize:        "1024x1024",
		ImageQuality:     "low",
		UploadDir:        filepath.Join(root, "images"),
		GeneratedDir:     filepath.Join(root, "generated_images"),
		FrontendDir:      filepath.Join(root, "frontend"),
		MaxUploadBytes:   5 << 20,
		MaxConcurrency:   4,
		ModelTimeout:     5 * time.Second,
		ModelMaxRetries:  1,
		AllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitPerHour: 0,
		LogLevel:         "debug",
	}
}

// PNGBase64 returns a tiny valid PNG encoded the way the images endpoint
// returns b64_json payloads.
func PNGBase64() string {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
