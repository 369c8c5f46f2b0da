package services_test

import (
	"context"
	"testing"

	"highlighter/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "clips")
	ctx = services.WithScene(ctx, 4)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "clips" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if idx, ok := services.SceneFromContext(ctx); !ok || idx != 4 {
		t.Fatalf("unexpected scene: %v %v", idx, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithScene(ctx, -1)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	if _, ok := services.SceneFromContext(ctx); ok {
		t.Fatal("expected no scene index")
	}
}

func TestSceneZeroIsRecorded(t *testing.T) {
	ctx := services.WithScene(context.Background(), 0)
	if idx, ok := services.SceneFromContext(ctx); !ok || idx != 0 {
		t.Fatalf("expected scene 0, got %v %v", idx, ok)
	}
}
