// ABOUTME: Tests for the pack registry: registration, collision detection, stable listing.
// ABOUTME: Validates thread-safe operations and tool lookup behavior.

package packs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
)

// createTestTool creates a Tool with a trivial handler for testing.
func createTestTool(name, description string) *Tool {
	return &Tool{
		Definition: Definition{
			Name:        name,
			Description: description,
			InputSchema: json.RawMessage(`{"type": "object"}`),
		},
		Handler: func(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		},
	}
}

func createTestPack(id string, tools ...*Tool) *Pack {
	return &Pack{ID: id, Tools: tools}
}

func TestRegistryRegisterPack(t *testing.T) {
	t.Run("registers pack successfully", func(t *testing.T) {
		registry := NewRegistry(slog.New(slog.DiscardHandler))
		pack := createTestPack("projects",
			createTestTool("list_projects", "List projects"),
			createTestTool("get_project", "Get one project"),
		)

		if err := registry.RegisterPack(pack); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !registry.HasTool("list_projects") {
			t.Error("expected list_projects to be registered")
		}
		if registry.ToolCount() != 2 {
			t.Errorf("expected 2 tools, got %d", registry.ToolCount())
		}
	})

	t.Run("returns error for duplicate pack ID", func(t *testing.T) {
		registry := NewRegistry(slog.New(slog.DiscardHandler))
		if err := registry.RegisterPack(createTestPack("risks", createTestTool("list_risks", "x"))); err != nil {
			t.Fatalf("unexpected error on first register: %v", err)
		}

		err := registry.RegisterPack(createTestPack("risks", createTestTool("other_tool", "x")))
		if !errors.Is(err, ErrPackAlreadyRegistered) {
			t.Errorf("expected ErrPackAlreadyRegistered, got %v", err)
		}
	})

	t.Run("returns error for tool name collision", func(t *testing.T) {
		registry := NewRegistry(slog.New(slog.DiscardHandler))
		if err := registry.RegisterPack(createTestPack("pack-a", createTestTool("shared_tool", "x"))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err := registry.RegisterPack(createTestPack("pack-b", createTestTool("shared_tool", "y")))
		if !errors.Is(err, ErrToolCollision) {
			t.Errorf("expected ErrToolCollision, got %v", err)
		}
		// A failed registration must not leave partial state behind.
		if registry.HasTool("shared_tool") && registry.ToolCount() != 1 {
			t.Errorf("collision left partial state, tool count %d", registry.ToolCount())
		}
	})

	t.Run("rejects unnamed tools and nil handlers", func(t *testing.T) {
		registry := NewRegistry(slog.New(slog.DiscardHandler))

		if err := registry.RegisterPack(createTestPack("bad", createTestTool("", "x"))); err == nil {
			t.Error("expected error for unnamed tool")
		}

		noHandler := createTestTool("handlerless", "x")
		noHandler.Handler = nil
		if err := registry.RegisterPack(createTestPack("bad2", noHandler)); err == nil {
			t.Error("expected error for nil handler")
		}
	})
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(slog.New(slog.DiscardHandler))
	if err := registry.RegisterPack(createTestPack("vendors", createTestTool("list_vendors", "x"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tool, packID, err := registry.Lookup("list_vendors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Definition.Name != "list_vendors" {
		t.Errorf("expected list_vendors, got %s", tool.Definition.Name)
	}
	if packID != "vendors" {
		t.Errorf("expected pack vendors, got %s", packID)
	}

	_, _, err = registry.Lookup("nonexistent")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistryDefinitionsAreSorted(t *testing.T) {
	registry := NewRegistry(slog.New(slog.DiscardHandler))
	if err := registry.RegisterPack(createTestPack("zeta", createTestTool("z_tool", "x"))); err != nil {
		t.Fatal(err)
	}
	if err := registry.RegisterPack(createTestPack("alpha",
		createTestTool("m_tool", "x"),
		createTestTool("a_tool", "x"),
	)); err != nil {
		t.Fatal(err)
	}

	defs := registry.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	for i, want := range []string{"a_tool", "m_tool", "z_tool"} {
		if defs[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, defs[i].Name)
		}
	}
}

func TestRegistryListPacks(t *testing.T) {
	registry := NewRegistry(slog.New(slog.DiscardHandler))
	if err := registry.RegisterPack(createTestPack("risks",
		createTestTool("list_risks", "x"),
		createTestTool("create_risk", "x"),
	)); err != nil {
		t.Fatal(err)
	}
	if err := registry.RegisterPack(createTestPack("projects", createTestTool("list_projects", "x"))); err != nil {
		t.Fatal(err)
	}

	infos := registry.ListPacks()
	if len(infos) != 2 {
		t.Fatalf("expected 2 packs, got %d", len(infos))
	}
	if infos[0].ID != "projects" || infos[1].ID != "risks" {
		t.Errorf("packs not sorted by ID: %v", infos)
	}
	if infos[1].ToolNames[0] != "create_risk" {
		t.Errorf("tool names not sorted: %v", infos[1].ToolNames)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry(slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			pack := createTestPack(fmt.Sprintf("pack-%d", n), createTestTool(fmt.Sprintf("tool-%d", n), "x"))
			_ = registry.RegisterPack(pack)
		}(i)
		go func() {
			defer wg.Done()
			_ = registry.Definitions()
			_ = registry.ListPacks()
		}()
	}
	wg.Wait()

	if registry.ToolCount() != 10 {
		t.Errorf("expected 10 tools, got %d", registry.ToolCount())
	}
}
