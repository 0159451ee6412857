package provider_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/intelligent-n8n/ai-router/internal/provider"
)

func registryProvider(id string) *provider.Provider {
	return provider.New(
		id,
		provider.KindLocalInference,
		mustURL("http://localhost:11434"),
		"",
		[]provider.TaskType{provider.TaskSemanticSearch},
		provider.TierFree,
		1,
		60*time.Second,
	)
}

var _ = Describe("Registry", func() {
	It("rejects an empty provider set", func() {
		_, err := provider.NewRegistry(nil)
		Expect(err).To(HaveOccurred())
	})

	It("rejects duplicate ids", func() {
		_, err := provider.NewRegistry([]*provider.Provider{
			registryProvider("ollama"),
			registryProvider("ollama"),
		})
		Expect(err).To(MatchError(ContainSubstring("duplicate provider id")))
	})

	Context("with providers registered out of order", func() {
		var registry *provider.Registry

		BeforeEach(func() {
			var err error
			registry, err = provider.NewRegistry([]*provider.Provider{
				registryProvider("openai"),
				registryProvider("claude"),
				registryProvider("cursor"),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("looks up providers by id", func() {
			p, ok := registry.Get("claude")
			Expect(ok).To(BeTrue())
			Expect(p.ID()).To(Equal("claude"))

			_, ok = registry.Get("copilot")
			Expect(ok).To(BeFalse())
		})

		It("iterates in sorted id order", func() {
			Expect(registry.IDs()).To(Equal([]string{"claude", "cursor", "openai"}))

			all := registry.All()
			Expect(all).To(HaveLen(3))
			Expect(all[0].ID()).To(Equal("claude"))
			Expect(all[2].ID()).To(Equal("openai"))
		})

		It("reports its size", func() {
			Expect(registry.Len()).To(Equal(3))
		})
	})
})
