package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/intelligent-n8n/ai-router/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

const validConfig = `
server:
  address: ":8081"
  environment: "dev"

logging:
  level: "info"

routing:
  mode: "subscription_first"

circuit_breaker:
  failure_threshold: 5
  open_timeout: "60s"
  half_open_success_to_close: 1
  half_open_failure_to_reopen: 1

health_check:
  interval: "15s"
  timeout: "5s"

providers:
  - id: "cursor"
    kind: "ide_subscription_a"
    base_url: "https://api.cursor.sh/v1"
    credential_ref: "CURSOR_API_KEY"
    capabilities: ["code_generation", "code_analysis", "workflow_automation"]
    cost_tier: "subscription"
    priority: 1
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11434"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 1
    max_timeout: "120s"
`

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		viper.Reset()

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		os.Chdir(origDir)
		os.RemoveAll(tempDir)
	})

	writeConfig := func(content string) {
		configPath := filepath.Join(tempDir, "config.yaml")
		Expect(os.WriteFile(configPath, []byte(content), 0644)).To(Succeed())
	}

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(validConfig)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the routing mode", func() {
				cfg, _ := config.Load()
				Expect(cfg.Routing.Mode).To(Equal("subscription_first"))
			})

			It("should parse breaker tunables", func() {
				cfg, _ := config.Load()
				Expect(cfg.CircuitBreaker.FailureThreshold).To(Equal(5))
				Expect(cfg.CircuitBreaker.OpenTimeout).To(Equal("60s"))
			})

			It("should parse provider entries", func() {
				cfg, _ := config.Load()
				Expect(cfg.Providers).To(HaveLen(2))
				Expect(cfg.Providers[0].ID).To(Equal("cursor"))
				Expect(cfg.Providers[0].Kind).To(Equal("ide_subscription_a"))
				Expect(cfg.Providers[0].CredentialRef).To(Equal("CURSOR_API_KEY"))
				Expect(cfg.Providers[1].Capabilities).To(Equal([]string{"semantic_search"}))
				Expect(cfg.Providers[1].MaxTimeout).To(Equal("120s"))
			})

			It("should apply health check defaults from the file", func() {
				cfg, _ := config.Load()
				Expect(cfg.HealthCheck.Interval).To(Equal("15s"))
				Expect(cfg.HealthCheck.Timeout).To(Equal("5s"))
			})
		})

		Context("with no config file", func() {
			It("should fail because providers are required", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with invalid configuration", func() {
			It("should reject an unknown routing mode", func() {
				writeConfig(`
routing:
  mode: "cheapest_first"

providers:
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11434"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 1
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unknown provider kind", func() {
				writeConfig(`
providers:
  - id: "mystery"
    kind: "quantum_oracle"
    base_url: "http://localhost:9999"
    capabilities: ["code_generation"]
    cost_tier: "free"
    priority: 1
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unknown capability", func() {
				writeConfig(`
providers:
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11434"
    capabilities: ["mind_reading"]
    cost_tier: "free"
    priority: 1
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject duplicate provider ids", func() {
				writeConfig(`
providers:
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11434"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 1
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11435"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 2
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a provider URL without a scheme", func() {
				writeConfig(`
providers:
  - id: "ollama"
    kind: "local_inference"
    base_url: "localhost:11434"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 1
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an invalid breaker timeout", func() {
				writeConfig(`
circuit_breaker:
  open_timeout: "soon"

providers:
  - id: "ollama"
    kind: "local_inference"
    base_url: "http://localhost:11434"
    capabilities: ["semantic_search"]
    cost_tier: "free"
    priority: 1
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
