package provider

import (
	"net/url"
	"time"
)

// TaskType is a category of AI work a provider can serve.
type TaskType string

const (
	TaskSemanticSearch     TaskType = "semantic_search"
	TaskCodeGeneration     TaskType = "code_generation"
	TaskCodeAnalysis       TaskType = "code_analysis"
	TaskWorkflowAutomation TaskType = "workflow_automation"
)

// TaskTypes lists every supported task type in a fixed order.
var TaskTypes = []TaskType{
	TaskSemanticSearch,
	TaskCodeGeneration,
	TaskCodeAnalysis,
	TaskWorkflowAutomation,
}

// ParseTaskType converts the wire value into a TaskType.
// Returns false for anything outside the known set.
func ParseTaskType(s string) (TaskType, bool) {
	for _, t := range TaskTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Kind identifies which family of backend a provider belongs to.
// The subscription kinds map to concrete services: A is Cursor,
// B is GitHub Copilot.
type Kind string

const (
	KindLocalInference   Kind = "local_inference"
	KindIDESubscriptionA Kind = "ide_subscription_a"
	KindIDESubscriptionB Kind = "ide_subscription_b"
	KindPaidAPIA         Kind = "paid_api_a"
	KindPaidAPIB         Kind = "paid_api_b"
)

// Kinds lists every provider kind in a fixed order.
var Kinds = []Kind{
	KindLocalInference,
	KindIDESubscriptionA,
	KindIDESubscriptionB,
	KindPaidAPIA,
	KindPaidAPIB,
}

// IsSubscription reports whether the kind is an IDE-subscription service.
func (k Kind) IsSubscription() bool {
	return k == KindIDESubscriptionA || k == KindIDESubscriptionB
}

// IsPaid reports whether the kind is a paid cloud API.
func (k Kind) IsPaid() bool {
	return k == KindPaidAPIA || k == KindPaidAPIB
}

// CostTier orders providers by how much a request costs to serve.
type CostTier string

const (
	TierFree         CostTier = "free"
	TierSubscription CostTier = "subscription"
	TierPaid         CostTier = "paid"
)

// Rank returns the tier's position for ascending-cost ordering.
func (t CostTier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierSubscription:
		return 1
	case TierPaid:
		return 2
	default:
		return 3
	}
}

// Provider is one configured backend. Entries are immutable for the
// process lifetime; all mutable health state lives in the circuit
// breaker keyed by the provider id.
type Provider struct {
	id            string
	kind          Kind
	baseURL       *url.URL
	credentialRef string
	capabilities  map[TaskType]struct{}
	costTier      CostTier
	priority      int
	maxTimeout    time.Duration
}

// New creates an immutable Provider. The caller (the config layer) is
// responsible for having validated every field.
func New(id string, kind Kind, baseURL *url.URL, credentialRef string, capabilities []TaskType, tier CostTier, priority int, maxTimeout time.Duration) *Provider {
	caps := make(map[TaskType]struct{}, len(capabilities))
	for _, c := range capabilities {
		caps[c] = struct{}{}
	}

	return &Provider{
		id:            id,
		kind:          kind,
		baseURL:       baseURL,
		credentialRef: credentialRef,
		capabilities:  caps,
		costTier:      tier,
		priority:      priority,
		maxTimeout:    maxTimeout,
	}
}

// ID returns the stable provider identifier.
func (p *Provider) ID() string {
	return p.id
}

// Kind returns the provider family.
func (p *Provider) Kind() Kind {
	return p.kind
}

// BaseURL returns the provider's API base URL.
func (p *Provider) BaseURL() *url.URL {
	return p.baseURL
}

// CredentialRef names the environment variable holding the provider's
// API credential. Empty for providers that need none.
func (p *Provider) CredentialRef() string {
	return p.credentialRef
}

// Supports reports whether the provider declares the given capability.
func (p *Provider) Supports(task TaskType) bool {
	_, ok := p.capabilities[task]
	return ok
}

// Capabilities returns the declared task types in the fixed TaskTypes order.
func (p *Provider) Capabilities() []TaskType {
	out := make([]TaskType, 0, len(p.capabilities))
	for _, t := range TaskTypes {
		if _, ok := p.capabilities[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// CostTier returns the provider's cost tier.
func (p *Provider) CostTier() CostTier {
	return p.costTier
}

// Priority returns the ordering weight within a tier; lower is preferred.
func (p *Provider) Priority() int {
	return p.priority
}

// MaxTimeout caps how long a single outbound call to this provider may run.
func (p *Provider) MaxTimeout() time.Duration {
	return p.maxTimeout
}
