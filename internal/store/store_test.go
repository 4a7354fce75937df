package store_test

import (
	"context"
	"errors"
	"testing"

	"cutroom/internal/store"
	"cutroom/internal/testsupport"
)

type fixtureDoc struct {
	EpisodeID string `json:"episodeId"`
	Title     string `json:"title"`
}

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc, err := st.Create(ctx, store.CollectionEpisodes, fixtureDoc{EpisodeID: "ep-1", Title: "Launch"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected generated document id")
	}

	fetched, err := st.Get(ctx, store.CollectionEpisodes, doc.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var decoded fixtureDoc
	if err := fetched.Decode(&decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Title != "Launch" {
		t.Fatalf("unexpected title: %q", decoded.Title)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.Get(context.Background(), store.CollectionEpisodes, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReplacesBody(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc, err := st.Create(ctx, store.CollectionEpisodes, fixtureDoc{EpisodeID: "ep-1", Title: "Draft"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := st.Update(ctx, store.CollectionEpisodes, doc.ID, fixtureDoc{EpisodeID: "ep-1", Title: "Final"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	var decoded fixtureDoc
	if err := updated.Decode(&decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Title != "Final" {
		t.Fatalf("unexpected title after update: %q", decoded.Title)
	}

	if _, err := st.Update(ctx, store.CollectionEpisodes, "missing", fixtureDoc{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing update, got %v", err)
	}
}

func TestQueryFieldFiltersAndOrders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, title := range []string{"First", "Second"} {
		if _, err := st.Create(ctx, store.CollectionAgentTasks, fixtureDoc{EpisodeID: "ep-1", Title: title}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := st.Create(ctx, store.CollectionAgentTasks, fixtureDoc{EpisodeID: "ep-2", Title: "Other"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	docs, err := st.QueryField(ctx, store.CollectionAgentTasks, "episodeId", "ep-1")
	if err != nil {
		t.Fatalf("QueryField failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	count, err := st.CountField(ctx, store.CollectionAgentTasks, "episodeId", "ep-1")
	if err != nil {
		t.Fatalf("CountField failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestQueryFieldRejectsBadFieldName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.QueryField(context.Background(), store.CollectionAgentTasks, "bad-field'", "x"); err == nil {
		t.Fatal("expected error for invalid field name")
	}
}

func TestRemoveAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	doc, err := st.Create(ctx, store.CollectionProjects, fixtureDoc{Title: "Apollo"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[store.CollectionProjects] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	removed, err := st.Remove(ctx, store.CollectionProjects, doc.ID)
	if err != nil || !removed {
		t.Fatalf("Remove failed: removed=%v err=%v", removed, err)
	}
	removed, err = st.Remove(ctx, store.CollectionProjects, doc.ID)
	if err != nil || removed {
		t.Fatalf("expected second remove to be a no-op: removed=%v err=%v", removed, err)
	}
}
