package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/playerstock/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Season, convey.ShouldEqual, 2025)
			convey.So(cfg.Sport, convey.ShouldEqual, "nfl")
			convey.So(cfg.CacheSize, convey.ShouldEqual, 0)
			convey.So(cfg.UpstreamTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.LeagueTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs breaking an invariant", t, func() {
		ctx := context.Background()

		noAddr := config.New(ctx)
		noAddr.Addr = ""
		noURL := config.New(ctx)
		noURL.UpstreamBaseURL = ""
		seasons := config.New(ctx)
		seasons.MinSeason = 2030

		convey.Convey("Then each fails validation", func() {
			for _, c := range []*config.Config{noAddr, noURL, seasons} {
				convey.So(errors.Is(c.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
