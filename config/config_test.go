package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/circuitguard/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		prevDir string
	)

	writeConfig := func(content string) {
		configPath := filepath.Join(tempDir, "config.yaml")
		err := os.WriteFile(configPath, []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		viper.Reset()

		var err error
		prevDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tempDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.Chdir(prevDir)
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: ":8080"
  environment: "dev"

logging:
  level: "info"

breaker:
  failure_threshold: 3
  reset_timeout: "30s"
  success_threshold: 2
  failure_window: "1m"

dependencies:
  - name: "github-api"
    breaker:
      failure_threshold: 5
  - name: "powershell-agent"
    probe:
      url: "http://localhost:9090/health"
      interval: "10s"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse breaker tunables", func() {
				cfg, _ := config.Load()
				tunables := cfg.Breaker.Tunables()
				Expect(tunables.FailureThreshold).To(Equal(3))
				Expect(tunables.ResetTimeout).To(Equal(30 * time.Second))
				Expect(tunables.SuccessThreshold).To(Equal(2))
				Expect(tunables.FailureWindow).To(Equal(time.Minute))
			})

			It("should parse dependency entries", func() {
				cfg, _ := config.Load()
				Expect(cfg.Dependencies).To(HaveLen(2))
				Expect(cfg.Dependencies[0].Name).To(Equal("github-api"))
				Expect(cfg.Dependencies[0].Breaker.FailureThreshold).To(Equal(5))
				Expect(cfg.Dependencies[1].Probe.URL).To(Equal("http://localhost:9090/health"))
				Expect(cfg.Dependencies[1].Probe.ProbeInterval(time.Minute)).To(Equal(10 * time.Second))
			})
		})

		Context("without a config file", func() {
			It("should fall back to defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelInfo))

				tunables := cfg.Breaker.Tunables()
				Expect(tunables.FailureThreshold).To(Equal(5))
				Expect(tunables.ResetTimeout).To(Equal(time.Minute))
			})
		})

		Context("with an invalid config file", func() {
			It("should reject a malformed duration", func() {
				writeConfig(`
breaker:
  reset_timeout: "soon"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject an unknown log level", func() {
				writeConfig(`
logging:
  level: "verbose"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a dependency without a name", func() {
				writeConfig(`
dependencies:
  - breaker:
      failure_threshold: 2
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a probe URL without http scheme", func() {
				writeConfig(`
dependencies:
  - name: "ros-bridge"
    probe:
      url: "ws://localhost:9090"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Tunables", func() {
		It("should leave unset fields at zero for registry merging", func() {
			tunables := config.BreakerConfig{FailureThreshold: 4}.Tunables()
			Expect(tunables.FailureThreshold).To(Equal(4))
			Expect(tunables.ResetTimeout).To(BeZero())
			Expect(tunables.FailureWindow).To(BeZero())
		})
	})
})
