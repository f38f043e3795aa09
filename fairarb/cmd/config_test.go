package cmd

import (
	"bytes"
	"os"
	"path/filepath"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fairarb/datarecording"
)

var _ = ginkgo.Describe("Config", func() {
	vars := []string{
		EnvDB, EnvRecorder, EnvClickHouseDSN, EnvMySQLDSN, EnvMongoDBURI,
		EnvMonitor,
		EnvMonitorPort, EnvOpenBrowser, EnvMaxSteps,
	}

	ginkgo.BeforeEach(func() {
		for _, v := range vars {
			ginkgo.GinkgoT().Setenv(v, "")
			os.Unsetenv(v)
		}
	})

	ginkgo.It("should default to sqlite without recording", func() {
		cfg, err := LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Recorder).To(Equal(datarecording.TypeSQLite))
		Expect(cfg.recording()).To(BeFalse())
	})

	ginkgo.It("should read the environment", func() {
		ginkgo.GinkgoT().Setenv(EnvDB, "out")
		ginkgo.GinkgoT().Setenv(EnvMonitor, "true")
		ginkgo.GinkgoT().Setenv(EnvMonitorPort, "8123")
		ginkgo.GinkgoT().Setenv(EnvMaxSteps, "50")

		cfg, err := LoadConfig()

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DB).To(Equal("out"))
		Expect(cfg.Monitor).To(BeTrue())
		Expect(cfg.MonitorPort).To(Equal(8123))
		Expect(cfg.MaxSteps).To(Equal(uint64(50)))
		Expect(cfg.recording()).To(BeTrue())
		Expect(cfg.recorderConfig().Path).To(Equal("out"))
	})

	ginkgo.It("should load env files without overriding the environment", func() {
		file := filepath.Join(ginkgo.GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(file, []byte(
			"FAIRARB_RECORDER=clickhouse\n"+
				"FAIRARB_CLICKHOUSE_DSN=clickhouse://db:9000/arb\n"+
				"FAIRARB_MAX_STEPS=9\n"), 0o644)).To(Succeed())
		ginkgo.GinkgoT().Setenv(EnvMaxSteps, "3")

		cfg, err := LoadConfig(file, filepath.Join(ginkgo.GinkgoT().TempDir(), "none"))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Recorder).To(Equal(datarecording.TypeClickHouse))
		Expect(cfg.ClickHouseDSN).To(Equal("clickhouse://db:9000/arb"))
		Expect(cfg.MaxSteps).To(Equal(uint64(3)))
		Expect(cfg.recording()).To(BeTrue())
	})

	ginkgo.It("should reject malformed values", func() {
		ginkgo.GinkgoT().Setenv(EnvMonitorPort, "eighty")
		_, err := LoadConfig()
		Expect(err).To(HaveOccurred())

		ginkgo.GinkgoT().Setenv(EnvMonitorPort, "")
		ginkgo.GinkgoT().Setenv(EnvOpenBrowser, "maybe")
		_, err = LoadConfig()
		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should validate scenario files", func() {
		out := &bytes.Buffer{}
		validateCmd.SetOut(out)

		err := validateCmd.RunE(validateCmd, []string{
			filepath.Join("..", "..", "scenarios", "staggered.yaml"),
			filepath.Join("..", "..", "scenarios", "bursty.yaml"),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("scenario Staggered, 3 clients"))
		Expect(out.String()).To(ContainSubstring("scenario Bursty"))
	})
})
