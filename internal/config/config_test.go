package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/staffing/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DefaultMatchLimit, convey.ShouldEqual, 5)
			convey.So(cfg.MaxMatchLimit, convey.ShouldEqual, 50)
			convey.So(cfg.AvailabilityBonus, convey.ShouldEqual, 0.05)
			convey.So(cfg.RankParallelism, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.AIMaxCandidates, convey.ShouldEqual, 15)
			convey.So(cfg.AITimeout(), convey.ShouldEqual, 8*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then AI is inactive without a key", func() {
			cfg.AIEnabled = true
			convey.So(cfg.AIActive(), convey.ShouldBeFalse)
			cfg.GeminiAPIKey = "k"
			convey.So(cfg.AIActive(), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = " " },
			"empty db path":      func(c *config.Config) { c.DBPath = "" },
			"zero max limit":     func(c *config.Config) { c.MaxMatchLimit = 0 },
			"default above max":  func(c *config.Config) { c.DefaultMatchLimit = 51 },
			"negative bonus":     func(c *config.Config) { c.AvailabilityBonus = -0.1 },
			"zero parallelism":   func(c *config.Config) { c.RankParallelism = 0 },
			"zero ai timeout":    func(c *config.Config) { c.AITimeoutMS = 0 },
			"two retries":        func(c *config.Config) { c.AIRetries = 2 },
			"zero ai candidates": func(c *config.Config) { c.AIMaxCandidates = 0 },
			"zero queue":         func(c *config.Config) { c.AuditQueueSize = 0 },
			"zero workers":       func(c *config.Config) { c.AuditWorkerCount = 0 },
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.Convey("Then "+name+" is rejected", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
