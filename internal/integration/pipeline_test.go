package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/server"
	"github.com/pageza/fridge2fork/backend/internal/testhelpers"
	"github.com/pageza/fridge2fork/backend/internal/types"
)

type pipeline struct {
	t       *testing.T
	cfg     *config.Config
	fake    *testhelpers.FakeOpenAI
	handler http.Handler
}

func newPipeline(t *testing.T, configure func(*config.Config)) *pipeline {
	t.Helper()
	fake := testhelpers.NewFakeOpenAI(t)
	cfg := testhelpers.NewTestConfig(t, fake.BaseURL())
	cfg.SQLitePath = filepath.Join(t.TempDir(), "history.db")
	if configure != nil {
		configure(cfg)
	}

	srv, err := server.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &pipeline{t: t, cfg: cfg, fake: fake, handler: srv.Handler()}
}

func (p *pipeline) do(req *http.Request, out any) int {
	p.t.Helper()
	w := httptest.NewRecorder()
	p.handler.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(p.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (p *pipeline) postJSON(path string, body any, out any) int {
	p.t.Helper()
	data, err := json.Marshal(body)
	require.NoError(p.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *pipeline) upload(out any, images ...[]byte) int {
	p.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, img := range images {
		part, err := mw.CreateFormFile("img", "photo"+string(rune('a'+i))+".png")
		require.NoError(p.t, err)
		_, err = part.Write(img)
		require.NoError(p.t, err)
	}
	require.NoError(p.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return p.do(req, out)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(testhelpers.PNGBase64())
	require.NoError(t, err)
	return data
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func recipe(name string, ingredients ...string) types.Recipe {
	return types.Recipe{
		Name:             name,
		Ingredients:      ingredients,
		ShortDescription: "A quick dish.",
		FullRecipe:       "1. Prepare.\n2. Serve.",
		CookingTime:      "15 minutes",
	}
}

func TestFridgeToForkPipeline(t *testing.T) {
	p := newPipeline(t, nil)

	p.fake.OnChat(func(call testhelpers.ChatCall) testhelpers.Reply {
		switch {
		case len(call.ImageURLs()) > 0:
			return testhelpers.JSONReply(types.IngredientList{Ingredients: []string{"Tomato", " basil ", "mozzarella"}})
		case call.ResponseFormat != nil && call.ResponseFormat.JSONSchema != nil && call.ResponseFormat.JSONSchema.Name == "recipe_list":
			return testhelpers.JSONReply(types.RecipeList{Recipes: []types.Recipe{
				recipe("Caprese Salad", "tomato", "mozzarella", "basil"),
				recipe("Pesto Toast", "basil", "pine nuts (extra)", "bread (extra)"),
				recipe("Tomato Soup", "tomato", "basil", "onion (extra)"),
				recipe("Baked Tomatoes", "tomato", "mozzarella"),
			}})
		default:
			return testhelpers.JSONReply(types.IngredientList{Ingredients: []string{"tomato", "basil", "mozzarella"}})
		}
	})
	p.fake.OnImage(func(openai.ImageRequest) testhelpers.Reply {
		return testhelpers.Reply{Status: http.StatusOK, Content: testhelpers.PNGBase64()}
	})

	// Upload two photos
	var uploaded types.UserImageResponse
	require.Equal(t, http.StatusOK, p.upload(&uploaded, pngBytes(t), pngBytes(t)))
	assert.Equal(t, []string{"basil", "mozzarella", "tomato"}, uploaded.Ingredients)
	require.Len(t, uploaded.ImagePaths, 2)
	for _, path := range uploaded.ImagePaths {
		assert.FileExists(t, path)
	}
	assert.Len(t, p.fake.ChatCalls(), 2)

	// Clean a hand-edited list
	var cleaned types.IngredientsResponse
	require.Equal(t, http.StatusOK, p.postJSON("/api/clean-ingredients",
		map[string]any{"ingredients": append(uploaded.Ingredients, "fork")}, &cleaned))
	assert.Equal(t, []string{"tomato", "basil", "mozzarella"}, cleaned.Ingredients)

	// Generate recipes; the nut recipe is dropped and the surplus truncated
	var generated types.RecipesResponse
	require.Equal(t, http.StatusOK, p.postJSON("/api/recipes-request", map[string]any{
		"ingredients": cleaned.Ingredients,
		"num_recipes": 2,
		"allergies":   "nuts",
		"diet":        "vegetarian",
		"cuisine":     "mediterranean",
	}, &generated))
	require.Len(t, generated.Recipes, 2)
	assert.Equal(t, "Caprese Salad", generated.Recipes[0].Name)
	assert.Equal(t, "Tomato Soup", generated.Recipes[1].Name)
	for _, r := range generated.Recipes {
		assert.Equal(t, testhelpers.PNGBase64(), r.ImageBase64)
	}
	assert.Len(t, p.fake.ImageCalls(), 2)

	calls := p.fake.ChatCalls()
	prompt := calls[len(calls)-1].Text()
	assert.Contains(t, prompt, "Vegetarian")
	assert.Contains(t, prompt, "Mediterranean")
	assert.Contains(t, prompt, "nuts")
	assert.Len(t, dirEntries(t, p.cfg.GeneratedDir), 2)

	// History records the generation
	var history struct {
		Generations []struct {
			Requested  int    `json:"requested"`
			Returned   int    `json:"returned"`
			WithImages int    `json:"with_images"`
			Status     string `json:"status"`
		} `json:"generations"`
	}
	require.Equal(t, http.StatusOK, p.do(httptest.NewRequest(http.MethodGet, "/api/generations", nil), &history))
	require.Len(t, history.Generations, 1)
	assert.Equal(t, 2, history.Generations[0].Returned)
	assert.Equal(t, 2, history.Generations[0].WithImages)
	assert.Equal(t, "success", history.Generations[0].Status)

	// Drop the uploads, then the rest of the session
	var cleanup types.CleanupResponse
	require.Equal(t, http.StatusOK, p.postJSON("/api/cleanup-image", map[string]any{"paths": uploaded.ImagePaths}, &cleanup))
	assert.True(t, cleanup.Success)
	assert.Empty(t, dirEntries(t, p.cfg.UploadDir))

	require.Equal(t, http.StatusOK, p.postJSON("/api/cleanup-session", nil, &cleanup))
	assert.True(t, cleanup.Success)
	assert.Empty(t, dirEntries(t, p.cfg.GeneratedDir))
}

func TestPipelineImageFailureDegrades(t *testing.T) {
	p := newPipeline(t, nil)
	p.fake.OnChat(func(testhelpers.ChatCall) testhelpers.Reply {
		return testhelpers.JSONReply(types.RecipeList{Recipes: []types.Recipe{recipe("Omelette", "egg")}})
	})
	p.fake.OnImage(func(openai.ImageRequest) testhelpers.Reply {
		return testhelpers.ErrorReply(http.StatusBadRequest, "content policy")
	})

	var generated types.RecipesResponse
	require.Equal(t, http.StatusOK, p.postJSON("/api/recipes-request",
		map[string]any{"ingredients": "egg", "num_recipes": 1}, &generated))
	require.Len(t, generated.Recipes, 1)
	assert.Equal(t, "Omelette", generated.Recipes[0].Name)
	assert.Empty(t, generated.Recipes[0].ImageBase64)
}

func TestPipelineUpstreamFailure(t *testing.T) {
	p := newPipeline(t, nil)
	p.fake.OnChat(func(testhelpers.ChatCall) testhelpers.Reply {
		return testhelpers.ErrorReply(http.StatusUnauthorized, "bad key")
	})

	code := p.postJSON("/api/clean-ingredients", map[string]any{"ingredients": []string{"rice"}}, nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Len(t, p.fake.ChatCalls(), 1)

	code = p.upload(nil, pngBytes(t))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Empty(t, dirEntries(t, p.cfg.UploadDir))
}

func TestPipelineRateLimit(t *testing.T) {
	p := newPipeline(t, func(cfg *config.Config) { cfg.RateLimitPerHour = 1 })
	p.fake.OnChat(func(testhelpers.ChatCall) testhelpers.Reply {
		return testhelpers.JSONReply(types.IngredientList{Ingredients: []string{"rice"}})
	})

	body := map[string]any{"ingredients": "rice"}
	assert.Equal(t, http.StatusOK, p.postJSON("/api/clean-ingredients", body, nil))
	assert.Equal(t, http.StatusTooManyRequests, p.postJSON("/api/clean-ingredients", body, nil))

	// Cleanup is not rate limited
	assert.Equal(t, http.StatusOK, p.postJSON("/api/cleanup-session", nil, nil))
}
