package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.Endpoint = endpoint
	cfg.Model = "test-model"
	cfg.BackoffBaseMs = 1
	return cfg
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
		"modelVersion": "test-model-001",
	}
}

func TestGenerate_Success(t *testing.T) {
	var captured generatePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(candidateResponse("generated text"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), NoopObserver{})
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:         TaskTutor,
		SystemPrompt: "you are a tutor",
		UserPrompt:   "explain derivatives",
	})
	require.NoError(t, err)

	assert.Equal(t, "generated text", resp.Text)
	assert.Equal(t, "test-model-001", resp.Model)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "you are a tutor", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "explain derivatives", captured.Contents[0].Parts[0].Text)
	assert.Nil(t, captured.GenerationConfig.ResponseSchema)
}

func TestGenerate_SendsHistoryAsAlternatingTurns(t *testing.T) {
	var captured generatePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(candidateResponse("ok"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task: TaskTutor,
		History: []Turn{
			{Role: "user", Content: "what is a limit?"},
			{Role: "model", Content: "a limit is..."},
		},
		UserPrompt: "and a derivative?",
	})
	require.NoError(t, err)

	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "and a derivative?", captured.Contents[2].Parts[0].Text)
}

func TestGenerate_ResponseSchemaEnablesJSONMode(t *testing.T) {
	var captured generatePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(candidateResponse(`{"planGoal":"x"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskPlan,
		UserPrompt: "study fractions for 5 days",
		ResponseSchema: &Schema{
			Type:     "OBJECT",
			Required: []string{"planGoal"},
			Properties: map[string]*Schema{
				"planGoal": {Type: "STRING"},
			},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, captured.GenerationConfig)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	require.NotNil(t, captured.GenerationConfig.ResponseSchema)
	assert.Equal(t, "OBJECT", captured.GenerationConfig.ResponseSchema.Type)
}

func TestGenerate_RetriesWithBackoffThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(candidateResponse("third time lucky"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), NoopObserver{})
	resp, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskPlan,
		UserPrompt: "plan",
	})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskPlan,
		UserPrompt: "plan",
	})
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(3), calls.Load(), "configured attempt budget is honored")
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(candidateResponse("too late"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskPlan: {Temperature: 0.3, MaxTokens: 64, TimeoutMs: 50},
	}

	client := NewClient(cfg, NoopObserver{})
	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskPlan,
		UserPrompt: "plan",
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_ContextCancellationAbortsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BackoffBaseMs = 5000

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(cfg, NoopObserver{})
	_, err := client.Generate(ctx, GenerateRequest{Task: TaskPlan, UserPrompt: "plan"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "cancellation must cut the backoff wait short")
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	client := NewClient(cfg, NoopObserver{})

	_, err := client.Generate(context.Background(), GenerateRequest{
		Task:       TaskTutor,
		UserPrompt: "hi",
	})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerate_ReportsToObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidateResponse("ok"))
	}))
	defer srv.Close()

	var events []CallEvent
	obs := observerFunc(func(ev CallEvent) { events = append(events, ev) })

	client := NewClient(testConfig(srv.URL), obs)
	_, err := client.Generate(context.Background(), GenerateRequest{Task: TaskTutor, UserPrompt: "hi"})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
	assert.Equal(t, TaskTutor, events[0].Task)
}

type observerFunc func(CallEvent)

func (f observerFunc) OnCallComplete(ev CallEvent) { f(ev) }
