package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

func newProjectFixture() (*ProjectUseCase, *projectStoreFake, *docRepoFake, *storageFake) {
	projects := &projectStoreFake{}
	docs := newDocRepoFake()
	storage := newStorageFake()
	return NewProjectUseCase(projects, docs, storage), projects, docs, storage
}

func TestCreateProjectDefaultsTypeAndRejectsReserved(t *testing.T) {
	uc, projects, _, _ := newProjectFixture()

	project, err := uc.CreateProject(context.Background(), "user-1", "  Acme Robotics ", "", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.ID == "" || project.Name != "Acme Robotics" || project.Type != domain.NewProjectType {
		t.Fatalf("unexpected project %+v", project)
	}
	if len(projects.projects) != 1 {
		t.Fatalf("expected project stored, got %+v", projects.projects)
	}

	if _, err := uc.CreateProject(context.Background(), "user-1", " ", "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := uc.CreateProject(context.Background(), "user-1", "Mine", "", domain.DefaultProjectType); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for reserved type, got %v", err)
	}
}

func TestListProjectsNewestFirst(t *testing.T) {
	uc, projects, _, _ := newProjectFixture()
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	projects.projects = []domain.Project{
		{ID: "p1", OwnerID: "user-1", Name: "Old", CreatedAt: base},
		{ID: "p2", OwnerID: "user-1", Name: "New", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "p3", OwnerID: "user-2", Name: "Other", CreatedAt: base.Add(time.Hour)},
	}

	got, err := uc.ListProjects(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "p2" || got[1].ID != "p1" {
		t.Fatalf("unexpected projects %+v", got)
	}
}

func TestGetProjectCountsContents(t *testing.T) {
	uc, projects, _, _ := newProjectFixture()
	projects.projects = []domain.Project{{ID: "p1", OwnerID: "user-1", Name: "Acme"}}
	projects.counts = map[string][2]int{"p1": {4, 2}}

	detail, err := uc.GetProject(context.Background(), "user-1", "p1")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if detail.DocumentCount != 4 || detail.ChatCount != 2 || detail.Name != "Acme" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if _, err := uc.GetProject(context.Background(), "user-2", "p1"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestUpdateProjectAppliesPatch(t *testing.T) {
	uc, projects, _, _ := newProjectFixture()
	projects.projects = []domain.Project{
		{ID: "p1", OwnerID: "user-1", Name: "Acme", Description: "seed", Type: domain.NewProjectType},
		{ID: "d1", OwnerID: "user-1", Name: domain.DefaultProjectName, Type: domain.DefaultProjectType},
	}
	name, description := "Acme Robotics", "Series A"

	updated, err := uc.UpdateProject(context.Background(), "user-1", "p1", domain.ProjectPatch{Name: &name, Description: &description})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if updated.Name != name || updated.Description != description || updated.Type != domain.NewProjectType {
		t.Fatalf("unexpected project %+v", updated)
	}
	if projects.projects[0].Name != name {
		t.Fatalf("expected store updated, got %+v", projects.projects[0])
	}

	blank := " "
	if _, err := uc.UpdateProject(context.Background(), "user-1", "p1", domain.ProjectPatch{Name: &blank}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := uc.UpdateProject(context.Background(), "user-1", "d1", domain.ProjectPatch{Name: &name}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected default project rename rejected, got %v", err)
	}
	if _, err := uc.UpdateProject(context.Background(), "user-1", "d1", domain.ProjectPatch{Description: &description}); err != nil {
		t.Fatalf("UpdateProject() default description error = %v", err)
	}
	if _, err := uc.UpdateProject(context.Background(), "user-2", "p1", domain.ProjectPatch{Name: &name}); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestDeleteProjectRemovesStoredFiles(t *testing.T) {
	uc, projects, docs, storage := newProjectFixture()
	projects.projects = []domain.Project{{ID: "p1", OwnerID: "user-1", Name: "Acme"}}
	storage.objects["user-1/1-deck.pdf"] = []byte("deck")
	if err := docs.Create(context.Background(), &domain.Document{ID: "doc-1", ProjectID: "p1", StoragePath: "user-1/1-deck.pdf"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := uc.DeleteProject(context.Background(), "user-2", "p1"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if len(storage.deleted) != 0 {
		t.Fatalf("foreign delete must not touch storage, got %v", storage.deleted)
	}

	if err := uc.DeleteProject(context.Background(), "user-1", "p1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "user-1/1-deck.pdf" {
		t.Fatalf("expected stored file removed, got %v", storage.deleted)
	}
	if len(projects.deleted) != 1 || projects.deleted[0] != "p1" || len(projects.projects) != 0 {
		t.Fatalf("expected project deleted, got deleted=%v remaining=%v", projects.deleted, projects.projects)
	}
}
