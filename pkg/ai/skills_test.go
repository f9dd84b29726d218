package ai

import (
	"context"
	"testing"
)

func echoSkill(_ context.Context, _ *Dispatcher, input any) (any, error) {
	return input, nil
}

func TestDispatcher_InvokeUnknownSkill(t *testing.T) {
	d := NewDispatcher()
	if _, err := d.Invoke(context.Background(), "missing", nil); err == nil {
		t.Fatal("Invoke() = nil error, want error for unregistered skill")
	}
}

func TestDispatcher_RejectsDirectSelfRecursion(t *testing.T) {
	d := NewDispatcher()
	var recurse Skill
	recurse = func(ctx context.Context, d *Dispatcher, input any) (any, error) {
		return d.Invoke(ctx, "recurse", input)
	}
	d.Register("recurse", recurse)

	if _, err := d.Invoke(context.Background(), "recurse", nil); err == nil {
		t.Fatal("Invoke() = nil error, want error for direct self-recursion")
	}
}

func TestDispatcher_EnforcesMaxDepth(t *testing.T) {
	d := NewDispatcher()
	chain := []SkillName{"a", "b", "c", "d"}
	for i, name := range chain {
		next := SkillName("")
		if i+1 < len(chain) {
			next = chain[i+1]
		}
		name, next := name, next
		d.Register(name, func(ctx context.Context, d *Dispatcher, input any) (any, error) {
			if next == "" {
				return "done", nil
			}
			return d.Invoke(ctx, next, input)
		})
	}

	if _, err := d.Invoke(context.Background(), "a", nil); err == nil {
		t.Fatal("Invoke() = nil error, want max-depth error for a 4-deep chain")
	}
}

func TestDispatcher_AllowsWithinDepth(t *testing.T) {
	d := NewDispatcher()
	d.Register("outer", func(ctx context.Context, d *Dispatcher, input any) (any, error) {
		return d.Invoke(ctx, "inner", input)
	})
	d.Register("inner", echoSkill)

	got, err := d.Invoke(context.Background(), "outer", "hello")
	if err != nil {
		t.Fatalf("Invoke() = %v", err)
	}
	if got != "hello" {
		t.Errorf("Invoke() = %v, want hello", got)
	}
}
