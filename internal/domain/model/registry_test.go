package model

import (
	"sync"
	"testing"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewDescriptor("gpt-4o", "GPT-4o", ProviderOpenAI).WithContextWindow(128000))

	d, err := reg.Get("gpt-4o")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if d.ContextWindow != 128000 {
		t.Errorf("ContextWindow = %d, want 128000", d.ContextWindow)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("missing")
	if !errors.Is(err, errors.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewDescriptor("m", "m", ProviderAnthropic).WithContextWindow(200000))

	d, _ := reg.Get("m")
	d.ContextWindow = 1

	again, _ := reg.Get("m")
	if again.ContextWindow != 200000 {
		t.Error("mutating a returned descriptor must not affect the registry")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewDescriptor("m", "m", ProviderAnthropic))

	if !reg.Unregister("m") {
		t.Error("expected Unregister to return true for registered model")
	}
	if reg.Unregister("m") {
		t.Error("expected Unregister to return false for missing model")
	}
	if reg.Has("m") {
		t.Error("model should be gone after Unregister")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewDescriptor("b-model", "B", ProviderOpenAI))
	reg.Register(NewDescriptor("a-model", "A", ProviderAnthropic))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() length = %d, want 2", len(list))
	}
	if list[0].ID != "a-model" || list[1].ID != "b-model" {
		t.Errorf("List() not sorted by ID: %s, %s", list[0].ID, list[1].ID)
	}
}

func TestRegistry_ListByProvider(t *testing.T) {
	reg := NewDefaultRegistry()

	for _, d := range reg.ListByProvider(ProviderAnthropic) {
		if d.Provider != ProviderAnthropic {
			t.Errorf("unexpected provider %s in anthropic listing", d.Provider)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewDefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Register(NewDescriptor("concurrent", "C", ProviderOpenAI))
		}()
		go func() {
			defer wg.Done()
			_ = reg.List()
		}()
	}
	wg.Wait()
}
