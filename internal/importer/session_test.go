package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annotlab/sheetmap/internal/mapping"
)

func testRecords() []map[string]any {
	return []map[string]any{
		{"id": "1", "name": "Alice", "file": "a.jpg"},
		{"id": "2", "name": "Bob", "file": "b.jpg"},
	}
}

func testModel() *mapping.Model {
	return mapping.NewModel([]string{"id", "name", "file"})
}

func TestRunPreviewMergesSuggestion(t *testing.T) {
	suggested := &mapping.Config{
		Sheet: "Resolved",
		Core: mapping.CoreConfig{
			TaskID:   mapping.CoreFieldConfig{Mode: mapping.ModeColumn, Name: "id"},
			TaskName: mapping.CoreFieldConfig{Mode: mapping.ModeColumn, Name: "name", Transforms: []string{"trim"}},
			FileName: mapping.CoreFieldConfig{Mode: mapping.ModeColumn, Name: "file"},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/imports/preview" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req PreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.ProjectID != 7 || len(req.Rows) != 2 {
			t.Errorf("unexpected request: project=%d rows=%d", req.ProjectID, len(req.Rows))
		}
		json.NewEncoder(w).Encode(PreviewResponse{
			TotalRows:        2,
			Columns:          []string{"id", "name", "file"},
			SuggestedMapping: suggested,
			SheetName:        "Resolved",
		})
	}))
	defer srv.Close()

	model := testModel()
	sess := NewSession(NewClient(srv.URL, ""), 7, model)

	resp, err := sess.RunPreview(context.Background(), testRecords(), nil)
	if err != nil {
		t.Fatalf("RunPreview: %v", err)
	}
	if resp.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", resp.TotalRows)
	}
	if sess.State() != StatePreviewed {
		t.Errorf("state = %v, want Previewed", sess.State())
	}
	if model.TaskIDMode != mapping.ModeColumn || model.TaskIDColumn != "id" {
		t.Errorf("suggestion not merged: mode=%v column=%q", model.TaskIDMode, model.TaskIDColumn)
	}
	if model.SheetName != "Resolved" {
		t.Errorf("SheetName = %q, want Resolved", model.SheetName)
	}
}

func TestRunPreviewEmptyRecordsShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	sess := NewSession(NewClient(srv.URL, ""), 1, testModel())
	if _, err := sess.RunPreview(context.Background(), nil, nil); err != ErrNoRows {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
	if calls != 0 {
		t.Errorf("server was called %d times; empty input must not hit the network", calls)
	}
	if sess.State() != StateIdle {
		t.Errorf("state = %v, want Idle", sess.State())
	}
}

func TestRunPreviewServerErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Project 9 not found."}`))
	}))
	defer srv.Close()

	sess := NewSession(NewClient(srv.URL, ""), 9, testModel())
	_, err := sess.RunPreview(context.Background(), testRecords(), nil)
	if err == nil || err.Error() != "Project 9 not found." {
		t.Fatalf("err = %v, want extracted detail message", err)
	}
	if sess.State() != StateIdle {
		t.Errorf("state = %v, want Idle after failed preview", sess.State())
	}
}

func TestRunConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/imports/confirm" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.FinalMappingConfig == nil {
			t.Error("final_mapping_config missing")
		}
		json.NewEncoder(w).Encode(ConfirmResponse{
			Inserted: 2,
			Errors:   []PreviewIssue{},
		})
	}))
	defer srv.Close()

	model := testModel()
	cfg, err := model.Compile("", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	sess := NewSession(NewClient(srv.URL, ""), 1, model)
	resp, err := sess.RunConfirm(context.Background(), testRecords(), cfg)
	if err != nil {
		t.Fatalf("RunConfirm: %v", err)
	}
	if resp.Inserted != 2 || resp.Skipped != 0 {
		t.Errorf("resp = %+v, want 2 inserted", resp)
	}
	if sess.State() != StateConfirmed {
		t.Errorf("state = %v, want Confirmed", sess.State())
	}
}

func TestRunConfirmFailureMutatesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"Database constraint error"}`))
	}))
	defer srv.Close()

	model := testModel()
	taskName := model.TaskNameColumn
	cfg, _ := model.Compile("", "")

	sess := NewSession(NewClient(srv.URL, ""), 1, model)
	sess.state = StatePreviewed

	_, err := sess.RunConfirm(context.Background(), testRecords(), cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if sess.State() != StatePreviewed {
		t.Errorf("state = %v, want Previewed restored after failed confirm", sess.State())
	}
	if model.TaskNameColumn != taskName {
		t.Error("confirm failure must not mutate the mapping model")
	}
}

func TestSessionSequenceTokens(t *testing.T) {
	sess := NewSession(NewClient("http://localhost", ""), 1, testModel())

	first := sess.NextSeq()
	second := sess.NextSeq()
	if second <= first {
		t.Fatalf("tokens not monotonic: %d then %d", first, second)
	}
	if sess.Seq() != second {
		t.Errorf("Seq() = %d, want %d", sess.Seq(), second)
	}

	// Reset orphans in-flight responses: a response stamped with `second`
	// must now compare stale.
	sess.Reset()
	if sess.Seq() == second {
		t.Error("Reset should advance the sequence so stale responses are discarded")
	}
	if sess.State() != StateIdle {
		t.Errorf("state = %v, want Idle after reset", sess.State())
	}
}
