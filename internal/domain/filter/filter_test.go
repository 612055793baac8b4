package filter_test

import (
	"errors"
	"testing"

	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func scenarioLeagues() []model.RawLeague {
	return []model.RawLeague{
		{ID: "1", Name: "A", Status: model.StatusInSeason, BestBall: false},
		{ID: "2", Name: "B", Status: model.StatusInSeason, BestBall: true},
		{ID: "3", Name: "C", Status: "drafting"},
	}
}

func TestApply(t *testing.T) {
	Convey("Given two in-season leagues and one drafting league", t, func() {
		raw := scenarioLeagues()

		Convey("When filtering with ModeAll", func() {
			got := filter.Apply(raw, filter.ModeAll)

			Convey("Then both in-season leagues are eligible in feed order", func() {
				So(filter.Names(got), ShouldResemble, []string{"A", "B"})
				So(filter.IDs(got), ShouldResemble, []string{"1", "2"})
			})
		})

		Convey("When filtering with ModeOnlyBestBall", func() {
			got := filter.Apply(raw, filter.ModeOnlyBestBall)

			Convey("Then only the best ball league remains", func() {
				So(filter.Names(got), ShouldResemble, []string{"B"})
			})
		})

		Convey("When filtering with ModeExcludeBestBall", func() {
			got := filter.Apply(raw, filter.ModeExcludeBestBall)

			Convey("Then only the non best ball league remains", func() {
				So(filter.Names(got), ShouldResemble, []string{"A"})
			})
		})
	})

	Convey("Given leagues in every non-active status", t, func() {
		raw := []model.RawLeague{
			{ID: "1", Name: "pre", Status: "pre_draft", BestBall: true},
			{ID: "2", Name: "draft", Status: "drafting"},
			{ID: "3", Name: "done", Status: "complete"},
			{ID: "4", Name: "blank"},
		}

		Convey("Then none of them is eligible under any mode", func() {
			for _, mode := range []filter.Mode{filter.ModeAll, filter.ModeOnlyBestBall, filter.ModeExcludeBestBall} {
				So(filter.Apply(raw, mode), ShouldBeEmpty)
			}
		})
	})

	Convey("Given an empty feed", t, func() {
		Convey("Then the result is empty, not nil", func() {
			got := filter.Apply(nil, filter.ModeAll)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestBestBallModesPartitionAll(t *testing.T) {
	Convey("Given a mixed feed", t, func() {
		raw := []model.RawLeague{
			{ID: "1", Name: "A", Status: model.StatusInSeason},
			{ID: "2", Name: "B", Status: model.StatusInSeason, BestBall: true},
			{ID: "3", Name: "C", Status: "pre_draft", BestBall: true},
			{ID: "4", Name: "D", Status: model.StatusInSeason, BestBall: true},
			{ID: "5", Name: "E", Status: model.StatusInSeason},
			{ID: "6", Name: "F", Status: "complete"},
		}

		all := filter.IDs(filter.Apply(raw, filter.ModeAll))
		only := filter.IDs(filter.Apply(raw, filter.ModeOnlyBestBall))
		excl := filter.IDs(filter.Apply(raw, filter.ModeExcludeBestBall))

		Convey("Then only and exclude are disjoint", func() {
			for _, id := range only {
				So(excl, ShouldNotContain, id)
			}
		})

		Convey("And their union is contained in the ModeAll set", func() {
			for _, id := range append(append([]string{}, only...), excl...) {
				So(all, ShouldContain, id)
			}
			So(len(only)+len(excl), ShouldEqual, len(all))
		})
	})
}

func TestSelectionMode(t *testing.T) {
	Convey("Given best ball selections", t, func() {
		Convey("When neither toggle is set", func() {
			mode, err := filter.Selection{}.Mode()
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, filter.ModeAll)
			So(mode.Label(), ShouldEqual, "All Leagues")
		})

		Convey("When only best ball is requested", func() {
			mode, err := filter.Selection{OnlyBestBall: true}.Mode()
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, filter.ModeOnlyBestBall)
			So(mode.Label(), ShouldEqual, "Only Best Ball Leagues")
		})

		Convey("When best ball is excluded", func() {
			mode, err := filter.Selection{ExcludeBestBall: true}.Mode()
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, filter.ModeExcludeBestBall)
			So(mode.Label(), ShouldEqual, "Excluding Best Ball Leagues")
		})

		Convey("When both toggles are set", func() {
			_, err := filter.Selection{OnlyBestBall: true, ExcludeBestBall: true}.Mode()

			Convey("Then it fails with a conflicting filter caller error", func() {
				So(errors.Is(err, model.ErrConflictingFilter), ShouldBeTrue)
				So(model.IsCallerError(err), ShouldBeTrue)
			})
		})
	})
}
