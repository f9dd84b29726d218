package ai

import (
	"context"
	"fmt"
)

// MaxSkillDepth bounds the invocation chain for one AI skill calling
// another (spec §9 "Skill invocation recursion"): a hard rule, not a
// tunable default.
const MaxSkillDepth = 3

// SkillName identifies a registered skill.
type SkillName string

type invocationChainKey struct{}

// invocationChain is carried through context.Context rather than held as
// package-level mutable state (spec §9 "ambient global state" redesign
// flag), so concurrent requests never share or corrupt each other's chain.
type invocationChain []SkillName

func chainFromContext(ctx context.Context) invocationChain {
	chain, _ := ctx.Value(invocationChainKey{}).(invocationChain)
	return chain
}

// Skill is one AI capability invocable by name, optionally invoking other
// skills through the Dispatcher passed to it.
type Skill func(ctx context.Context, d *Dispatcher, input any) (any, error)

// Dispatcher runs registered skills, enforcing MaxSkillDepth and rejecting
// direct self-recursion.
type Dispatcher struct {
	skills map[SkillName]Skill
}

// NewDispatcher builds an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{skills: map[SkillName]Skill{}}
}

// Register adds a skill under name, overwriting any prior registration.
func (d *Dispatcher) Register(name SkillName, skill Skill) {
	d.skills[name] = skill
}

// Invoke runs the named skill, appending it to the invocation chain
// carried in ctx. It rejects direct self-recursion (name already the last
// link in the chain) and chains deeper than MaxSkillDepth.
func (d *Dispatcher) Invoke(ctx context.Context, name SkillName, input any) (any, error) {
	chain := chainFromContext(ctx)

	if len(chain) > 0 && chain[len(chain)-1] == name {
		return nil, fmt.Errorf("skill %q cannot invoke itself directly", name)
	}
	if len(chain) >= MaxSkillDepth {
		return nil, fmt.Errorf("skill invocation chain exceeded max depth %d: %v", MaxSkillDepth, chain)
	}

	skill, ok := d.skills[name]
	if !ok {
		return nil, fmt.Errorf("no skill registered for %q", name)
	}

	next := make(invocationChain, len(chain)+1)
	copy(next, chain)
	next[len(chain)] = name
	nextCtx := context.WithValue(ctx, invocationChainKey{}, next)

	return skill(nextCtx, d, input)
}
