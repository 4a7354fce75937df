package projects_test

import (
	"context"
	"errors"
	"testing"

	"cutroom/internal/projects"
	"cutroom/internal/services"
	"cutroom/internal/testsupport"
)

func newService(t *testing.T) *projects.Service {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return projects.NewService(st, nil)
}

func TestCreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, "  The Space Race ", "Season one")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if project.Title != "The Space Race" {
		t.Errorf("title = %q, want trimmed", project.Title)
	}
	if project.Status != projects.StatusActive {
		t.Errorf("status = %q, want active", project.Status)
	}

	loaded, err := svc.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Title != project.Title || loaded.Description != "Season one" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Create(context.Background(), "   ", ""); !errors.Is(err, services.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "First", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, "Second", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, "Working Title", "draft")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(ctx, project.ID, "The Space Race", "", projects.StatusArchived)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "The Space Race" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Description != "draft" {
		t.Errorf("description = %q, empty field should be unchanged", updated.Description)
	}
	if updated.Status != projects.StatusArchived {
		t.Errorf("status = %q", updated.Status)
	}

	if _, err := svc.Update(ctx, project.ID, "", "", "cancelled"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("bad status err = %v, want validation error", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	project, err := svc.Create(ctx, "Doomed", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, project.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}
