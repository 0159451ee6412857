package policy_test

import (
	"net/url"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
	"github.com/intelligent-n8n/ai-router/internal/policy"
	"github.com/intelligent-n8n/ai-router/internal/provider"
)

func TestPolicy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Policy Suite")
}

func newProvider(id string, kind provider.Kind, tier provider.CostTier, priority int, caps ...provider.TaskType) *provider.Provider {
	u, err := url.Parse("http://" + id + ".local:9000")
	Expect(err).NotTo(HaveOccurred())
	return provider.New(id, kind, u, "", caps, tier, priority, 30*time.Second)
}

var _ = Describe("Engine", func() {
	var (
		registry *provider.Registry
		breakers *circuitbreaker.Registry
	)

	codegen := provider.TaskCodeGeneration

	BeforeEach(func() {
		var err error
		registry, err = provider.NewRegistry([]*provider.Provider{
			newProvider("cursor", provider.KindIDESubscriptionA, provider.TierSubscription, 1,
				provider.TaskCodeGeneration, provider.TaskCodeAnalysis, provider.TaskWorkflowAutomation),
			newProvider("copilot", provider.KindIDESubscriptionB, provider.TierSubscription, 2,
				provider.TaskCodeGeneration, provider.TaskCodeAnalysis),
			newProvider("ollama", provider.KindLocalInference, provider.TierFree, 1,
				provider.TaskCodeGeneration, provider.TaskSemanticSearch),
			newProvider("claude", provider.KindPaidAPIA, provider.TierPaid, 1,
				provider.TaskCodeGeneration, provider.TaskCodeAnalysis),
			newProvider("openai", provider.KindPaidAPIB, provider.TierPaid, 2,
				provider.TaskCodeGeneration),
		})
		Expect(err).NotTo(HaveOccurred())
		breakers = circuitbreaker.NewRegistry(circuitbreaker.Settings{FailureThreshold: 1})
	})

	Describe("subscription_first", func() {
		It("should order subscriptions, then local, then paid", func() {
			engine := policy.NewEngine(registry, breakers, policy.ModeSubscriptionFirst)
			decision := engine.Decide(codegen)

			Expect(decision.Reason).To(Equal(policy.ReasonOK))
			Expect(decision.Candidates).To(Equal([]string{"cursor", "copilot", "ollama", "claude", "openai"}))
		})

		It("should respect priority within the subscription band", func() {
			reg, err := provider.NewRegistry([]*provider.Provider{
				newProvider("cursor", provider.KindIDESubscriptionA, provider.TierSubscription, 5, codegen),
				newProvider("copilot", provider.KindIDESubscriptionB, provider.TierSubscription, 1, codegen),
			})
			Expect(err).NotTo(HaveOccurred())

			decision := policy.NewEngine(reg, breakers, policy.ModeSubscriptionFirst).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"copilot", "cursor"}))
		})

		It("should only list providers with the requested capability", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModeSubscriptionFirst).Decide(provider.TaskSemanticSearch)
			Expect(decision.Candidates).To(Equal([]string{"ollama"}))
		})
	})

	Describe("restricted modes", func() {
		It("cursor_only should keep exactly the Cursor provider", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModeCursorOnly).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"cursor"}))
		})

		It("cursor_only should keep the Cursor provider even when its circuit is OPEN", func() {
			breakers.GetBreaker("cursor").RecordFailure()
			Expect(breakers.GetBreaker("cursor").State()).To(Equal(circuitbreaker.StateOpen))

			decision := policy.NewEngine(registry, breakers, policy.ModeCursorOnly).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"cursor"}))
		})

		It("copilot_only should keep exactly the Copilot provider", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModeCopilotOnly).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"copilot"}))
		})

		It("local_only should keep only local inference", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModeLocalOnly).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"ollama"}))
		})

		It("paid_only should keep paid providers ordered by tier and priority", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModePaidOnly).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"claude", "openai"}))
		})

		It("should report no_provider_in_mode when the mode filters everyone out", func() {
			decision := policy.NewEngine(registry, breakers, policy.ModeCopilotOnly).Decide(provider.TaskSemanticSearch)
			Expect(decision.Candidates).To(BeEmpty())
			Expect(decision.Reason).To(Equal(policy.ReasonNoProviderInMode))
		})
	})

	Describe("unsupported capability", func() {
		It("should return capability_unsupported when no provider matches", func() {
			reg, err := provider.NewRegistry([]*provider.Provider{
				newProvider("ollama", provider.KindLocalInference, provider.TierFree, 1, provider.TaskSemanticSearch),
			})
			Expect(err).NotTo(HaveOccurred())

			decision := policy.NewEngine(reg, breakers, policy.ModeSubscriptionFirst).Decide(codegen)
			Expect(decision.Candidates).To(BeEmpty())
			Expect(decision.Reason).To(Equal(policy.ReasonCapabilityUnsupported))
		})
	})

	Describe("OPEN circuit demotion", func() {
		It("should move OPEN providers to the tail, preserving order", func() {
			breakers.GetBreaker("cursor").RecordFailure()
			Expect(breakers.GetBreaker("cursor").State()).To(Equal(circuitbreaker.StateOpen))

			decision := policy.NewEngine(registry, breakers, policy.ModeSubscriptionFirst).Decide(codegen)
			Expect(decision.Candidates).To(Equal([]string{"copilot", "ollama", "claude", "openai", "cursor"}))
		})

		It("should never drop an OPEN provider entirely", func() {
			for _, id := range registry.IDs() {
				breakers.GetBreaker(id).RecordFailure()
			}

			decision := policy.NewEngine(registry, breakers, policy.ModeSubscriptionFirst).Decide(codegen)
			Expect(decision.Candidates).To(HaveLen(5))
		})
	})

	Describe("determinism", func() {
		It("should produce the same ordering on repeated invocations", func() {
			breakers.GetBreaker("claude").RecordFailure()
			engine := policy.NewEngine(registry, breakers, policy.ModeSubscriptionFirst)

			first := engine.Decide(codegen)
			for i := 0; i < 25; i++ {
				Expect(engine.Decide(codegen)).To(Equal(first))
			}
		})
	})
})
