package memory_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/tap-top/recall/core"
	"github.com/tap-top/recall/memory"
)

// fakeLLM replays scripted responses and records the prompts it saw.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, temperature float64, model string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i >= len(f.responses) {
		return "", errors.New("no scripted response")
	}
	return f.responses[i], nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) prompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[i]
}

// fakeEmbedder returns a constant vector.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fakeEmbedder) Dimensions() int { return 3 }

type indexDoc struct {
	vector   []float32
	metadata map[string]string
}

// fakeIndex is an in-memory vector index that returns documents in
// insertion order and supports injected failures.
type fakeIndex struct {
	mu        sync.Mutex
	order     []string
	docs      map[string]indexDoc
	upsertErr error
	searchErr error
	deleteErr error
	upserts   int
	deletes   int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]indexDoc)}
}

func (f *fakeIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if _, exists := f.docs[id]; !exists {
		f.order = append(f.order, id)
	}
	f.docs[id] = indexDoc{vector: vector, metadata: metadata}
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.docs, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int, filters map[string]string) ([]memory.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var hits []memory.SearchHit
	for _, id := range f.order {
		if len(hits) >= k {
			break
		}
		doc := f.docs[id]
		matches := true
		for key, val := range filters {
			if doc.metadata[key] != val {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}
		hits = append(hits, memory.SearchHit{ID: id, Score: 0.9, Metadata: doc.metadata})
	}
	return hits, nil
}

func (f *fakeIndex) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

// fakeRecords is an in-memory record store with version checking.
type fakeRecords struct {
	mu        sync.Mutex
	recs      map[string]*memory.Record
	createErr error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{recs: make(map[string]*memory.Record)}
}

func (f *fakeRecords) Create(ctx context.Context, rec *memory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *rec
	f.recs[rec.ID] = &cp
	return nil
}

func (f *fakeRecords) Get(ctx context.Context, id string) (*memory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok {
		return nil, memory.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) Update(ctx context.Context, rec *memory.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.recs[rec.ID]
	if !ok {
		return memory.ErrNotFound
	}
	if stored.Version != rec.Version {
		return memory.ErrStale
	}
	stored.Content = rec.Content
	stored.Metadata = rec.Metadata
	stored.Version++
	rec.Version++
	return nil
}

func (f *fakeRecords) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[id]; !ok {
		return memory.ErrNotFound
	}
	delete(f.recs, id)
	return nil
}

func (f *fakeRecords) List(ctx context.Context, filters map[string]string, offset, limit int) ([]*memory.Record, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*memory.Record
	for _, rec := range f.recs {
		cp := *rec
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func (f *fakeRecords) get(id string) *memory.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs[id]
}

func newTestManager(t *testing.T, llm *fakeLLM, index *fakeIndex, records *fakeRecords) *memory.Manager {
	t.Helper()
	m, err := memory.NewManager(llm, fakeEmbedder{}, index, records, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

// seed installs an existing memory in both stores.
func seed(t *testing.T, index *fakeIndex, records *fakeRecords, id, content string) {
	t.Helper()
	ctx := context.Background()
	err := records.Create(ctx, &memory.Record{
		ID: id, Content: content, MemoryType: "fact", Version: 1,
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	err = index.Upsert(ctx, id, []float32{1, 0, 0}, map[string]string{"content": content})
	if err != nil {
		t.Fatalf("seeding vector: %v", err)
	}
}

func factsJSON(facts ...string) string {
	quoted := make([]string, len(facts))
	for i, f := range facts {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return fmt.Sprintf(`{"facts": [%s]}`, strings.Join(quoted, ", "))
}

func TestAddCreatesNewMemory(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Name is John"),
		`{"memory": [{"id": "0", "event": "ADD", "text": "Name is John"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hi, my name is John."}},
		Metadata: map[string]string{"user_id": "u1"},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if llm.calls() != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", llm.calls())
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	if res.Event != core.EventAdd {
		t.Errorf("event = %q, want ADD", res.Event)
	}
	if res.ID == "" {
		t.Error("expected a generated record ID")
	}
	if res.Memory != "Name is John" {
		t.Errorf("memory = %q", res.Memory)
	}

	rec := records.get(res.ID)
	if rec == nil {
		t.Fatal("record not stored")
	}
	if rec.Content != "Name is John" || rec.Version != 1 || rec.MemoryType != "fact" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.UserID != "u1" {
		t.Errorf("user_id = %q, want u1", rec.UserID)
	}
	if !index.has(res.ID) {
		t.Error("vector not indexed")
	}
}

func TestAddRealIDsNeverReachPrompt(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Name is John"),
		`{"memory": [{"id": "0", "event": "NONE", "text": "Name is John"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "af3c0d2e-existing-record-id", "Name is John")
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "My name is John."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	reconcilePrompt := llm.prompt(1)
	if strings.Contains(reconcilePrompt, "af3c0d2e") {
		t.Error("real record ID leaked into the reconciliation prompt")
	}
	if !strings.Contains(reconcilePrompt, `"id": "0"`) {
		t.Error("placeholder ID missing from the reconciliation prompt")
	}

	if len(results) != 1 || results[0].Event != core.EventNone {
		t.Fatalf("unexpected results: %+v", results)
	}
	if records.count() != 1 {
		t.Errorf("NONE must not mutate the record store, have %d records", records.count())
	}
	if rec := records.get("af3c0d2e-existing-record-id"); rec.Content != "Name is John" {
		t.Errorf("record content changed: %q", rec.Content)
	}
}

func TestAddDeduplicatesRetrievedCandidates(t *testing.T) {
	// Both facts surface the same stored memory, so the reconciliation
	// prompt must present it once, under a single placeholder.
	llm := &fakeLLM{responses: []string{
		factsJSON("Sky is blue", "Grass is green"),
		`{"memory": [{"id": "0", "event": "NONE", "text": "Sky is blue and grass is green"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Sky is blue and grass is green")
	m := newTestManager(t, llm, index, records)

	_, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "The sky is blue and the grass is green."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if llm.calls() != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", llm.calls())
	}

	reconcilePrompt := llm.prompt(1)
	if got := strings.Count(reconcilePrompt, `"id": "0"`); got != 1 {
		t.Errorf("expected 1 candidate entry, got %d", got)
	}
	if strings.Contains(reconcilePrompt, `"id": "1"`) {
		t.Error("duplicate hit was assigned a second placeholder")
	}
}

func TestAddUpdatesContradictedMemory(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Loves to play cricket with friends"),
		`{"memory": [{"id": "0", "event": "UPDATE", "memory": "Loves to play cricket with friends", "old_memory": "User likes to play cricket"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "User likes to play cricket")
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "I love playing cricket with my friends."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	res := results[0]
	if res.Event != core.EventUpdate || res.ID != "mem-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.PreviousMemory != "User likes to play cricket" {
		t.Errorf("previous memory = %q", res.PreviousMemory)
	}

	rec := records.get("mem-1")
	if rec.Content != "Loves to play cricket with friends" {
		t.Errorf("content = %q", rec.Content)
	}
	if rec.Version != 2 {
		t.Errorf("version = %d, want 2", rec.Version)
	}
}

func TestAddDeletesContradictedMemory(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Dislikes cheese pizza"),
		`{"memory": [{"id": "0", "event": "DELETE", "text": "Loves cheese pizza"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Loves cheese pizza")
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Actually I hate cheese pizza now."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 1 || results[0].Event != core.EventDelete || results[0].ID != "mem-1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if records.count() != 0 {
		t.Error("record not deleted")
	}
	if index.has("mem-1") {
		t.Error("vector not deleted")
	}
}

func TestAddMalformedExtractionSkipsPipeline(t *testing.T) {
	llm := &fakeLLM{responses: []string{"this is not json"}}
	index := newFakeIndex()
	records := newFakeRecords()
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hello."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %+v", results)
	}
	if llm.calls() != 1 {
		t.Errorf("expected 1 LLM call, got %d", llm.calls())
	}
	if records.count() != 0 {
		t.Error("record store must not be touched")
	}
}

func TestAddEmptyFactsSkipsReconciliation(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"facts": []}`}}
	m := newTestManager(t, llm, newFakeIndex(), newFakeRecords())

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hi."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %+v", results)
	}
	if llm.calls() != 1 {
		t.Errorf("expected 1 LLM call, got %d", llm.calls())
	}
}

func TestAddFencedResponsesStillParse(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"```json\n" + factsJSON("Sky is blue") + "\n```",
		"```json\n" + `{"memory": [{"id": "0", "event": "ADD", "text": "Sky is blue"}]}` + "\n```",
	}}
	records := newFakeRecords()
	m := newTestManager(t, llm, newFakeIndex(), records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "The sky is blue."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 1 || results[0].Event != core.EventAdd {
		t.Fatalf("unexpected results: %+v", results)
	}
	if records.count() != 1 {
		t.Error("record not stored")
	}
}

func TestAddVectorFailureDoesNotLoseRecords(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Sky is blue", "Grass is green", "Name is John"),
		`{"memory": [
			{"id": "0", "event": "ADD", "text": "Sky is blue"},
			{"id": "1", "event": "ADD", "text": "Grass is green"},
			{"id": "2", "event": "ADD", "text": "Name is John"}
		]}`,
	}}
	index := newFakeIndex()
	index.upsertErr = errors.New("index is down")
	records := newFakeRecords()
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "The sky is blue, the grass is green, and my name is John."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if records.count() != 3 {
		t.Errorf("expected 3 records despite index failures, got %d", records.count())
	}
}

func TestAddSkipsUnknownPlaceholder(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Name is John"),
		`{"memory": [{"id": "7", "event": "UPDATE", "text": "Name is John"}]}`,
	}}
	records := newFakeRecords()
	m := newTestManager(t, llm, newFakeIndex(), records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "My name is John."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
	if records.count() != 0 {
		t.Error("record store must not be touched")
	}
}

func TestAddSkipsUpdateOfMissingRecord(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Loves tea"),
		`{"memory": [{"id": "0", "event": "UPDATE", "text": "Loves tea"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	// Vector exists but the record is gone, as after a partial delete.
	err := index.Upsert(context.Background(), "mem-1", []float32{1, 0, 0},
		map[string]string{"content": "Loves coffee"})
	if err != nil {
		t.Fatalf("seeding vector: %v", err)
	}
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "I love tea."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %+v", results)
	}
}

func TestAddNumericPlaceholderIDs(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		factsJSON("Dislikes cheese pizza"),
		`{"memory": [{"id": 0, "event": "DELETE", "text": "Loves cheese pizza"}]}`,
	}}
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Loves cheese pizza")
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "I hate cheese pizza."}},
		Infer:    true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 1 || results[0].ID != "mem-1" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if records.count() != 0 {
		t.Error("record not deleted")
	}
}

func TestAddRawStoresVerbatim(t *testing.T) {
	llm := &fakeLLM{}
	index := newFakeIndex()
	records := newFakeRecords()
	m := newTestManager(t, llm, index, records)

	results, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "You are a helpful assistant."},
			{Role: core.RoleUser, Content: "I live in Berlin.", Name: "alice"},
			{Role: core.RoleAssistant, Content: "Noted!"},
			{Content: "orphan content without a role"},
		},
		Metadata: map[string]string{"user_id": "u1"},
		Infer:    false,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if llm.calls() != 0 {
		t.Errorf("raw ingest must not call the LLM, got %d calls", llm.calls())
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ActorID != "alice" || results[0].Role != core.RoleUser {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if records.count() != 2 {
		t.Errorf("expected 2 records, got %d", records.count())
	}
	rec := records.get(results[0].ID)
	if rec.Metadata["role"] != core.RoleUser || rec.Metadata["actor_name"] != "alice" {
		t.Errorf("unexpected metadata: %+v", rec.Metadata)
	}
	if rec.Metadata["timestamp"] == "" {
		t.Error("timestamp missing from metadata")
	}
}

func TestAddSystemTurnsExcludedFromExtraction(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"facts": []}`}}
	m := newTestManager(t, llm, newFakeIndex(), newFakeRecords())

	_, err := m.Add(context.Background(), memory.AddRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "SECRET SYSTEM INSTRUCTIONS"},
			{Role: core.RoleUser, Content: "Hello."},
		},
		Infer: true,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if strings.Contains(llm.prompt(0), "SECRET SYSTEM INSTRUCTIONS") {
		t.Error("system turn leaked into the extraction prompt")
	}
	if !strings.Contains(llm.prompt(0), "Hello.") {
		t.Error("user turn missing from the extraction prompt")
	}
}

func TestAddNoMessages(t *testing.T) {
	m := newTestManager(t, &fakeLLM{}, newFakeIndex(), newFakeRecords())
	_, err := m.Add(context.Background(), memory.AddRequest{Infer: true})
	if !errors.Is(err, memory.ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestEnqueueAddRunsInlineWithoutPool(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"facts": []}`}}
	m := newTestManager(t, llm, newFakeIndex(), newFakeRecords())

	var gotErr error
	called := false
	m.EnqueueAdd(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hi."}},
		Infer:    true,
	}, func(results []core.OperationResult, err error) {
		called = true
		gotErr = err
	})
	if !called {
		t.Fatal("done callback not invoked")
	}
	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
}

func TestEnqueueAddRunsOnPool(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"facts": []}`}}
	pool := memory.NewWorkerPool(2, 4)
	m, err := memory.NewManager(llm, fakeEmbedder{}, newFakeIndex(), newFakeRecords(), nil,
		memory.WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	done := make(chan error, 1)
	m.EnqueueAdd(context.Background(), memory.AddRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hi."}},
		Infer:    true,
	}, func(results []core.OperationResult, err error) {
		done <- err
	})
	pool.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	default:
		t.Fatal("task did not complete before pool shutdown returned")
	}
}

func TestSearchReturnsScoredMemories(t *testing.T) {
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Lives in Berlin")
	m := newTestManager(t, &fakeLLM{}, index, records)

	results, err := m.Search(context.Background(), "where does the user live", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "mem-1" || results[0].Memory != "Lives in Berlin" {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].Score == 0 {
		t.Error("expected a non-zero score")
	}
}

func TestDeleteRemovesBothStores(t *testing.T) {
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Lives in Berlin")
	m := newTestManager(t, &fakeLLM{}, index, records)

	if err := m.Delete(context.Background(), "mem-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if records.count() != 0 || index.has("mem-1") {
		t.Error("memory not fully removed")
	}

	if err := m.Delete(context.Background(), "mem-1"); !errors.Is(err, memory.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSurvivesIndexFailure(t *testing.T) {
	index := newFakeIndex()
	records := newFakeRecords()
	seed(t, index, records, "mem-1", "Lives in Berlin")
	index.deleteErr = errors.New("index is down")
	m := newTestManager(t, &fakeLLM{}, index, records)

	if err := m.Delete(context.Background(), "mem-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if records.count() != 0 {
		t.Error("record delete must proceed despite index failure")
	}
}

func TestListClampsPagination(t *testing.T) {
	records := newFakeRecords()
	m := newTestManager(t, &fakeLLM{}, newFakeIndex(), records)

	page, err := m.List(context.Background(), nil, -3, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want 1", page.Page)
	}
	if page.Size != 20 {
		t.Errorf("size = %d, want 20", page.Size)
	}
	if page.Items == nil {
		t.Error("items must not be nil")
	}

	page, err = m.List(context.Background(), nil, 1, 5000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Size != 1000 {
		t.Errorf("size = %d, want 1000", page.Size)
	}
}
