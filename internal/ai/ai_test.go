package ai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"scraperpro/internal/ai"
	"scraperpro/internal/models"
	"scraperpro/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// fakeModel serves canned chat completion responses so no test touches
// the real API.
func fakeModel(t *testing.T, reply string) *ai.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string       `json:"model"`
			Messages []ai.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		response := map[string]any{
			"id": "cmpl-1",
			"choices": []map[string]any{
				{"message": ai.Message{Role: "assistant", Content: reply}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		}
		w.Header().Set("content-type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(server.Close)

	client, err := ai.NewClient(ai.Config{ApiKey: "test-key", BaseUrl: server.URL})
	require.NoError(t, err)
	return client
}

func TestAsk(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	client := fakeModel(t, "OK")
	response, err := client.Ask(context.Background(), "ping")
	require.NoError(t, err)
	require.Equal(t, "OK", response)
}

func TestCompletionApiError(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	}))
	t.Cleanup(server.Close)

	client, err := ai.NewClient(ai.Config{ApiKey: "wrong", BaseUrl: server.URL})
	require.NoError(t, err)

	_, err = client.Ask(context.Background(), "ping")
	require.Error(t, err)
	require.Contains(t, err.Error(), "deepseek api error")
}

func TestExtractJson(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n[1, 2]\n```", `[1, 2]`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, ai.ExtractJson(c.in))
		})
	}
}

func TestDetectSelectors(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	reply := "```json\n" + `{
		"container": ".product",
		"title": "h2.name",
		"price": ".price",
		"image": "img.photo",
		"content": ".description",
		"confidence": 0.9
	}` + "\n```"
	client := fakeModel(t, reply)
	assistant := ai.NewSelectorAssistant(client, t.TempDir())

	detected, err := assistant.DetectSelectors(context.Background(), "shop.example.com", "<html></html>")
	require.NoError(t, err)
	require.Equal(t, "shop.example.com", detected.Domain)
	require.Equal(t, ".product", detected.Selectors.Container)
	require.Equal(t, "h2.name", detected.Selectors.Title)
	require.Equal(t, ".price", detected.Selectors.Price)
	require.Equal(t, 0.9, detected.Confidence)
	require.False(t, detected.GeneratedAt.IsZero())
}

func TestSelectorCacheRoundTrip(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	reply := `{"container": ".item", "title": "h3", "confidence": 0.7}`
	client := fakeModel(t, reply)
	assistant := ai.NewSelectorAssistant(client, t.TempDir())

	require.False(t, assistant.Has("https://shop.example.com"))

	detected, err := assistant.GetOrDetect(context.Background(), "https://shop.example.com", "<html></html>")
	require.NoError(t, err)
	require.True(t, assistant.Has("https://shop.example.com"))

	loaded, err := assistant.Load("https://shop.example.com")
	require.NoError(t, err)
	require.Equal(t, detected.Selectors, loaded.Selectors)

	// second call must come from the cache, not the model
	again, err := assistant.GetOrDetect(context.Background(), "https://shop.example.com", "different html")
	require.NoError(t, err)
	require.Equal(t, detected.Selectors, again.Selectors)
}

func TestNormalizeBatchMergesById(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	a := models.NewRecord("shop", "https://shop.example.com/widget")
	a.Title = "widget  blue"
	b := models.NewRecord("shop", "https://shop.example.com/junk")

	reply := fmt.Sprintf("```json\n"+`[
		{"id": %q, "title": "Widget Blue", "price_usd": 12.5, "category": "Widgets", "source": "shop"},
		{"id": "made-up-id", "title": "Phantom", "source": "shop"}
	]`+"\n```", a.Id)
	client := fakeModel(t, reply)

	out, err := ai.NewNormalizer(client).NormalizeBatch(context.Background(), []models.Record{a, b})
	require.NoError(t, err)

	// b was dropped by the model, the invented id is discarded
	require.Len(t, out, 1)
	require.Equal(t, a.Id, out[0].Id)
	require.Equal(t, "Widget Blue", out[0].Title)
	require.Equal(t, "Widgets", out[0].Category)
	require.NotNil(t, out[0].Price)
	require.Equal(t, 12.5, *out[0].Price)
	// untouched fields survive the merge
	require.Equal(t, "https://shop.example.com/widget", out[0].Url)
}

func TestNormalizeBatchEmptyInput(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	client := fakeModel(t, "[]")
	out, err := ai.NewNormalizer(client).NormalizeBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestNormalizeAllKeepsFailedBatches(t *testing.T) {
	telemetry.SetupForTesting(t, "ai_test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client, err := ai.NewClient(ai.Config{ApiKey: "test-key", BaseUrl: server.URL})
	require.NoError(t, err)

	a := models.NewRecord("shop", "https://shop.example.com/a")
	b := models.NewRecord("shop", "https://shop.example.com/b")

	out := ai.NewNormalizer(client).NormalizeAll(context.Background(), []models.Record{a, b})
	require.Len(t, out, 2)
}
