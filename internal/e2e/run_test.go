//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framehaus/siteforge/internal/artifact"
	"github.com/framehaus/siteforge/internal/engine"
	"github.com/framehaus/siteforge/internal/pipeline"
	"github.com/framehaus/siteforge/internal/provider"
	"github.com/framehaus/siteforge/internal/sampledata"
	"github.com/framehaus/siteforge/internal/site"
)

// providerStub is an in-process generation service. It answers every request
// by kind and counts what it saw, so tests can assert on traffic.
type providerStub struct {
	mu    sync.Mutex
	seen  map[string]int
	fail  bool
	genID int
}

func (s *providerStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer e2e-key" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"code": "unauthorized", "message": "missing or bad api key"},
			})
			return
		}

		var req provider.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding generation request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.seen[req.Kind]++
		s.genID++
		id := fmt.Sprintf("gen-%d", s.genID)
		fail := s.fail
		s.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"code": "internal", "message": "backend unavailable"},
			})
			return
		}

		gen := provider.Generation{ID: id, Kind: req.Kind, Model: "e2e-lite", CreatedAt: time.Now().UTC()}
		switch req.Kind {
		case "palette":
			gen.Text = "deep green and sand, generous whitespace"
		case "copy":
			gen.Text = "Two short paragraphs written for this section."
		default:
			gen.URL = "https://cdn.e2e.test/" + id + "/" + req.Size
		}
		json.NewEncoder(w).Encode(gen)
	}
}

func (s *providerStub) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[kind]
}

// startRun wires a real HTTP client and a SQLite-backed store to the
// pipeline, using the embedded starter plan.
func startRun(t *testing.T, stub *providerStub) (*site.Plan, *pipeline.Pipeline, artifact.Store) {
	t.Helper()

	data, err := sampledata.Starter("site.yml")
	require.NoError(t, err)
	plan, err := site.FromYAML(data)
	require.NoError(t, err)

	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)

	store, err := artifact.OpenSQLiteStore(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := provider.NewHTTPClient(srv.URL, provider.WithAPIKey("e2e-key"))
	p := pipeline.New(pipeline.Config{
		MaxConcurrent: 2,
		RetryBudget:   1,
		Retry:         engine.RetryPolicy{Base: time.Millisecond, Multiplier: 2},
		BatchPause:    time.Millisecond,
	}, client, store)

	return plan, p, store
}

// TestRun_E2E_FullGeneration drives the whole pipeline against an in-process
// provider and verifies the projected sections and the stored artifacts.
func TestRun_E2E_FullGeneration(t *testing.T) {
	stub := &providerStub{seen: make(map[string]int)}
	plan, p, store := startRun(t, stub)

	// Drain progress events in the background so the pipeline does not block.
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range p.Progress() {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := p.Run(ctx, plan)
	require.NoError(t, err)

	p.Close()
	<-drainDone

	require.Equal(t, engine.RunDone, result.Run.State)
	require.Len(t, result.Sections, 4)

	// --- Projected sections ---

	byKey := make(map[string]*site.Section, len(result.Sections))
	for _, s := range result.Sections {
		byKey[s.Key] = s
	}

	hero := byKey["hero"]
	require.NotNil(t, hero.Primary, "hero section should have a primary asset")
	assert.Equal(t, engine.ClassHero, hero.Primary.Class)
	assert.Len(t, hero.Supporting, 1)
	assert.Equal(t, "Two short paragraphs written for this section.", hero.Copy)

	services := byKey["services"]
	require.NotNil(t, services.Primary)
	assert.Equal(t, engine.ClassPrimary, services.Primary.Class)
	assert.Empty(t, services.Supporting)

	about := byKey["about"]
	require.NotNil(t, about.Primary, "single supporting asset should land in the primary slot")
	assert.Equal(t, engine.ClassSupporting, about.Primary.Class)
	assert.Contains(t, about.Copy, "Rotterdam", "authored copy must survive the run untouched")

	contact := byKey["contact"]
	assert.Nil(t, contact.Primary)
	assert.NotEmpty(t, contact.Copy)

	// --- Stored artifacts ---

	heroArts, err := store.ListByKey(ctx, "hero")
	require.NoError(t, err)
	require.Len(t, heroArts, 2)

	require.NotEmpty(t, hero.Primary.Ref)
	art, err := store.Get(ctx, hero.Primary.Ref)
	require.NoError(t, err)
	assert.Equal(t, "hero", art.Key)

	var gen provider.Generation
	require.NoError(t, json.Unmarshal(art.Payload, &gen))
	assert.Contains(t, gen.URL, "1536x640", "hero images use the wide size")

	// --- Provider traffic ---

	assert.Equal(t, 1, stub.count("palette"), "the palette should be generated once per run")
	assert.Equal(t, 3, stub.count("copy"))
	assert.Equal(t, 4, stub.count("image"))
}

// TestRun_E2E_ProviderDown verifies that a dead provider fails the run
// through the dependency chain instead of hanging or panicking.
func TestRun_E2E_ProviderDown(t *testing.T) {
	stub := &providerStub{seen: make(map[string]int), fail: true}
	plan, p, store := startRun(t, stub)

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range p.Progress() {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, err := p.Run(ctx, plan)
	p.Close()
	<-drainDone

	require.Error(t, err)

	var depErr *engine.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "palette", depErr.Dependency)

	arts, err := store.ListByKey(ctx, "hero")
	require.NoError(t, err)
	assert.Empty(t, arts, "no artifacts should be stored when the run aborts")
}
