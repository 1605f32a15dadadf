package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThoBustos/tinyworld/character"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/memory"
	"github.com/ThoBustos/tinyworld/workflow"
)

type fakeWorld struct {
	state     core.CycleState
	store     core.MemoryStore
	namespace string
	resets    int

	triggerAccept bool
	triggered     []workflow.CycleInput
}

func (f *fakeWorld) StateSnapshot() core.CycleState { return f.state }

func (f *fakeWorld) Reset() core.CycleState {
	f.resets++
	return core.CycleState{CharacterID: f.state.CharacterID}
}

func (f *fakeWorld) Trigger(ctx context.Context, in workflow.CycleInput, cleanup func()) bool {
	f.triggered = append(f.triggered, in)
	if cleanup != nil {
		cleanup()
	}
	return f.triggerAccept
}

func (f *fakeWorld) Memory() core.MemoryStore     { return f.store }
func (f *fakeWorld) Namespace() string            { return f.namespace }
func (f *fakeWorld) Identity() character.Identity { return character.Socrates() }
func (f *fakeWorld) Dropped() uint64              { return 3 }
func (f *fakeWorld) InFlight() bool               { return false }

func newTestServer(t *testing.T, world World) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(world).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		state: core.CycleState{
			CharacterID:       "char-1",
			CurrentReflection: "What is a good life?",
			CycleCount:        4,
			LastDecisionTime:  time.Now().UTC(),
		},
		store:         memory.NewInMemoryStore(),
		namespace:     "test-memory",
		triggerAccept: true,
	}
}

func TestRoot_ReportsCharacter(t *testing.T) {
	srv := newTestServer(t, newFakeWorld())

	var body map[string]any
	resp := getJSON(t, srv.URL+"/", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tinyworld", body["service"])
	assert.Equal(t, "Socrates", body["character"])
}

func TestHealth_IncludesSchedulerCounters(t *testing.T) {
	srv := newTestServer(t, newFakeWorld())

	var body map[string]any
	resp := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["dropped_cycles"])
}

func TestAgentState_ReturnsSnapshot(t *testing.T) {
	srv := newTestServer(t, newFakeWorld())

	var state core.CycleState
	resp := getJSON(t, srv.URL+"/agents/state", &state)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "char-1", state.CharacterID)
	assert.Equal(t, 4, state.CycleCount)
	assert.Equal(t, "What is a good life?", state.CurrentReflection)
}

func TestMemoryRecent_ListsRecords(t *testing.T) {
	world := newFakeWorld()
	_, err := world.store.Add(world.namespace, "first thought", nil)
	require.NoError(t, err)
	_, err = world.store.Add(world.namespace, "second thought", nil)
	require.NoError(t, err)

	srv := newTestServer(t, world)

	var body struct {
		Namespace string              `json:"namespace"`
		Records   []core.MemoryRecord `json:"records"`
	}
	resp := getJSON(t, srv.URL+"/agents/memory/recent?limit=1", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-memory", body.Namespace)
	require.Len(t, body.Records, 1)
}

func TestMemoryRecent_EmptyNamespaceReturnsEmptyList(t *testing.T) {
	srv := newTestServer(t, newFakeWorld())

	var body struct {
		Records []core.MemoryRecord `json:"records"`
	}
	resp := getJSON(t, srv.URL+"/agents/memory/recent", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body.Records)
	assert.Empty(t, body.Records)
}

func TestMemoryRecent_RejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, newFakeWorld())

	resp, err := http.Get(srv.URL + "/agents/memory/recent?limit=zero")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMemoryStats_ReportsCounts(t *testing.T) {
	world := newFakeWorld()
	_, err := world.store.Add(world.namespace, "a thought", nil)
	require.NoError(t, err)

	srv := newTestServer(t, world)

	var stats core.MemoryStats
	resp := getJSON(t, srv.URL+"/agents/memory/stats", &stats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-memory", stats.Namespace)
	assert.Equal(t, 1, stats.TotalRecords)
}

func TestReset_RequiresPost(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	resp, err := http.Get(srv.URL + "/agents/reset")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Zero(t, world.resets)

	resp, err = http.Post(srv.URL+"/agents/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, world.resets)
}

func TestTrigger_AcceptsScreenshotAndPosition(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	image := []byte{0x89, 0x50, 0x4e, 0x47}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/agents/trigger?x=100&y=250", bytes.NewReader(image))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "image/png")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, world.triggered, 1)
	assert.Equal(t, image, world.triggered[0].Image)
	assert.Equal(t, "image/png", world.triggered[0].ImageMIME)
	require.NotNil(t, world.triggered[0].Position)
	assert.Equal(t, core.Point{X: 100, Y: 250}, *world.triggered[0].Position)
}

func TestTrigger_AcceptsParameterizedMediaType(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	image := []byte{0x89, 0x50, 0x4e, 0x47}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/agents/trigger", bytes.NewReader(image))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "image/png; charset=binary")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, world.triggered, 1)
	assert.Equal(t, image, world.triggered[0].Image)
	assert.Equal(t, "image/png", world.triggered[0].ImageMIME)
}

func TestTrigger_NoBodyTriggersPlainCycle(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	resp, err := http.Post(srv.URL+"/agents/trigger", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, world.triggered, 1)
	assert.Empty(t, world.triggered[0].Image)
	assert.Nil(t, world.triggered[0].Position)
}

func TestTrigger_DroppedWhileInFlightIsConflict(t *testing.T) {
	world := newFakeWorld()
	world.triggerAccept = false
	srv := newTestServer(t, world)

	resp, err := http.Post(srv.URL+"/agents/trigger", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["accepted"])
}

func TestTrigger_RejectsUnknownContentType(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	resp, err := http.Post(srv.URL+"/agents/trigger", "text/plain", bytes.NewBufferString("hello"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Empty(t, world.triggered)
}

func TestTrigger_RejectsHalfPosition(t *testing.T) {
	world := newFakeWorld()
	srv := newTestServer(t, world)

	resp, err := http.Post(srv.URL+"/agents/trigger?x=100", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, world.triggered)
}

type failingStore struct{ core.MemoryStore }

func (failingStore) ListRecent(string, int) ([]core.MemoryRecord, error) {
	return nil, errors.New("disk gone")
}

func TestMemoryRecent_StoreFailureIs500(t *testing.T) {
	world := newFakeWorld()
	world.store = failingStore{world.store}
	srv := newTestServer(t, world)

	resp, err := http.Get(srv.URL + "/agents/memory/recent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
