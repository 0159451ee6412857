package policy

import (
	"sort"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/provider"
)

// Mode selects which provider subset and ordering the engine applies.
type Mode string

const (
	ModeSubscriptionFirst Mode = "subscription_first"
	ModeCursorOnly        Mode = "cursor_only"
	ModeCopilotOnly       Mode = "copilot_only"
	ModePaidOnly          Mode = "paid_only"
	ModeLocalOnly         Mode = "local_only"
)

// Modes lists every routing mode in a fixed order.
var Modes = []Mode{
	ModeSubscriptionFirst,
	ModeCursorOnly,
	ModeCopilotOnly,
	ModePaidOnly,
	ModeLocalOnly,
}

// ParseMode converts the configured value into a Mode.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Reason explains why a decision carries the candidates it does.
type Reason string

const (
	ReasonOK                    Reason = "ok"
	ReasonCapabilityUnsupported Reason = "capability_unsupported"
	ReasonNoProviderInMode      Reason = "no_provider_in_mode"
)

// Decision is an ordered candidate list for one request. Empty lists
// carry the reason no candidate qualified.
type Decision struct {
	Candidates []string
	Reason     Reason
}

// Engine turns (task type, routing mode, registry + breaker snapshot)
// into a deterministic candidate ordering. It holds no mutable state of
// its own: identical inputs always yield identical output.
type Engine struct {
	registry *provider.Registry
	breakers *circuitbreaker.Registry
	mode     Mode
}

func NewEngine(registry *provider.Registry, breakers *circuitbreaker.Registry, mode Mode) *Engine {
	return &Engine{
		registry: registry,
		breakers: breakers,
		mode:     mode,
	}
}

// Mode returns the configured routing mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Decide produces the candidate ordering for one task type.
//
// Capability filtering happens first; a task no provider supports is
// reported as such regardless of mode. The mode then selects and orders
// the band structure. Finally, providers whose circuit is OPEN are
// demoted to the tail rather than dropped, so a request still reaches
// them as a last resort instead of failing with zero attempts.
func (e *Engine) Decide(task provider.TaskType) Decision {
	capable := make([]*provider.Provider, 0, e.registry.Len())
	for _, p := range e.registry.All() {
		if p.Supports(task) {
			capable = append(capable, p)
		}
	}
	if len(capable) == 0 {
		return Decision{Reason: ReasonCapabilityUnsupported}
	}

	ordered := e.applyMode(capable)
	if len(ordered) == 0 {
		return Decision{Reason: ReasonNoProviderInMode}
	}

	ordered = demoteOpen(ordered, e.breakers)

	ids := make([]string, len(ordered))
	for i, p := range ordered {
		ids[i] = p.ID()
	}
	return Decision{Candidates: ids, Reason: ReasonOK}
}

func (e *Engine) applyMode(capable []*provider.Provider) []*provider.Provider {
	switch e.mode {
	case ModeLocalOnly:
		return keepKind(capable, func(k provider.Kind) bool { return k == provider.KindLocalInference })
	case ModeCursorOnly:
		return keepKind(capable, func(k provider.Kind) bool { return k == provider.KindIDESubscriptionA })
	case ModeCopilotOnly:
		return keepKind(capable, func(k provider.Kind) bool { return k == provider.KindIDESubscriptionB })
	case ModePaidOnly:
		paid := keepKind(capable, provider.Kind.IsPaid)
		sortByCost(paid)
		return paid
	case ModeSubscriptionFirst:
		return subscriptionFirst(capable)
	default:
		return nil
	}
}

func keepKind(providers []*provider.Provider, match func(provider.Kind) bool) []*provider.Provider {
	kept := make([]*provider.Provider, 0, len(providers))
	for _, p := range providers {
		if match(p.Kind()) {
			kept = append(kept, p)
		}
	}
	sortByPriority(kept)
	return kept
}

// subscriptionFirst orders IDE-subscription providers first, then local
// inference, then paid APIs last, by priority within each band.
func subscriptionFirst(capable []*provider.Provider) []*provider.Provider {
	band := func(p *provider.Provider) int {
		switch {
		case p.Kind().IsSubscription():
			return 0
		case p.Kind() == provider.KindLocalInference:
			return 1
		default:
			return 2
		}
	}

	ordered := make([]*provider.Provider, len(capable))
	copy(ordered, capable)
	sort.SliceStable(ordered, func(i, j int) bool {
		if band(ordered[i]) != band(ordered[j]) {
			return band(ordered[i]) < band(ordered[j])
		}
		if ordered[i].Priority() != ordered[j].Priority() {
			return ordered[i].Priority() < ordered[j].Priority()
		}
		return ordered[i].ID() < ordered[j].ID()
	})
	return ordered
}

func sortByPriority(providers []*provider.Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].Priority() != providers[j].Priority() {
			return providers[i].Priority() < providers[j].Priority()
		}
		return providers[i].ID() < providers[j].ID()
	})
}

func sortByCost(providers []*provider.Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].CostTier().Rank() != providers[j].CostTier().Rank() {
			return providers[i].CostTier().Rank() < providers[j].CostTier().Rank()
		}
		if providers[i].Priority() != providers[j].Priority() {
			return providers[i].Priority() < providers[j].Priority()
		}
		return providers[i].ID() < providers[j].ID()
	})
}

// demoteOpen moves providers with an OPEN circuit to the tail while
// preserving relative order on both sides. Best-effort degrade: an OPEN
// provider is still attempted last rather than never.
func demoteOpen(ordered []*provider.Provider, breakers *circuitbreaker.Registry) []*provider.Provider {
	available := make([]*provider.Provider, 0, len(ordered))
	open := make([]*provider.Provider, 0)

	for _, p := range ordered {
		if breakers.GetBreaker(p.ID()).State() == circuitbreaker.StateOpen {
			open = append(open, p)
		} else {
			available = append(available, p)
		}
	}
	return append(available, open...)
}
