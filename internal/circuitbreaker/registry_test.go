package circuitbreaker_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/intelligent-n8n/ai-router/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(circuitbreaker.Settings{
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		})
	})

	Describe("GetBreaker", func() {
		It("should return the same breaker for the same provider id", func() {
			cb1 := registry.GetBreaker("cursor")
			cb2 := registry.GetBreaker("cursor")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return distinct breakers for distinct providers", func() {
			Expect(registry.GetBreaker("cursor")).NotTo(BeIdenticalTo(registry.GetBreaker("ollama")))
		})

		It("should keep provider state isolated", func() {
			cursor := registry.GetBreaker("cursor")
			cursor.RecordFailure()
			cursor.RecordFailure()

			Expect(cursor.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(registry.GetBreaker("ollama").State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should be safe under concurrent first access", func() {
			var wg sync.WaitGroup
			breakers := make([]*circuitbreaker.CircuitBreaker, 32)
			for i := range breakers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					breakers[i] = registry.GetBreaker("claude")
				}(i)
			}
			wg.Wait()

			for _, cb := range breakers {
				Expect(cb).To(BeIdenticalTo(breakers[0]))
			}
		})
	})

	Describe("States", func() {
		It("should report the state of every known breaker", func() {
			registry.GetBreaker("cursor")
			ollama := registry.GetBreaker("ollama")
			ollama.RecordFailure()
			ollama.RecordFailure()

			states := registry.States()
			Expect(states).To(HaveLen(2))
			Expect(states["cursor"]).To(Equal(circuitbreaker.StateClosed))
			Expect(states["ollama"]).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Describe("Snapshots", func() {
		It("should expose failure counts per provider", func() {
			cb := registry.GetBreaker("openai")
			cb.RecordFailure()

			snaps := registry.Snapshots()
			Expect(snaps["openai"].ConsecutiveFailures).To(Equal(1))
			Expect(snaps["openai"].State).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("Reset", func() {
		It("should discard all breakers", func() {
			registry.GetBreaker("cursor").RecordFailure()
			registry.Reset()
			Expect(registry.States()).To(BeEmpty())
			Expect(registry.GetBreaker("cursor").Snapshot().ConsecutiveFailures).To(Equal(0))
		})
	})
})
