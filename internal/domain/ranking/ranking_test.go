package ranking_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/internal/domain/ranking"
	"github.com/okian/staffing/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRanker_Rank(t *testing.T) {
	Convey("Given a ranker over the default matcher", t, func() {
		r := ranking.NewRanker(scoring.NewMatcher())
		p1 := model.Project{ID: "P1", Name: "Payments", RequiredSkills: []string{"Go", "SQL"}}

		Convey("When A covers both skills and B covers one", func() {
			employees := []model.Employee{
				{ID: "B", Name: "B", Skills: []string{"SQL"}},
				{ID: "A", Name: "A", Skills: []string{"Go", "SQL"}},
			}
			out, err := r.Rank(p1, employees, 5)

			Convey("Then A ranks first with score 1 and B second with 0.5", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
				So(out[0].ID, ShouldEqual, "A")
				So(out[0].Score, ShouldEqual, 1.0)
				So(out[0].MatchedSkills, ShouldResemble, []string{"Go", "SQL"})
				So(out[1].ID, ShouldEqual, "B")
				So(out[1].Score, ShouldEqual, 0.5)
				So(out[1].MatchedSkills, ShouldResemble, []string{"SQL"})
			})
		})

		Convey("When some employees match nothing", func() {
			employees := []model.Employee{
				{ID: "x", Name: "X", Skills: []string{"Java"}, AvailabilityDates: []model.Date{model.NewDate(2025, time.January, 2)}},
				{ID: "y", Name: "Y", Skills: []string{"Go"}},
			}
			out, err := r.Rank(p1, employees, 5)

			Convey("Then they are excluded", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].ID, ShouldEqual, "y")
			})
		})

		Convey("When scores tie", func() {
			employees := []model.Employee{
				{ID: "3", Name: "Zed", Skills: []string{"Go"}},
				{ID: "2", Name: "Amy", Skills: []string{"Go"}},
				{ID: "1", Name: "Amy", Skills: []string{"SQL"}},
			}
			out, err := r.Rank(p1, employees, 5)

			Convey("Then name and then id break the tie", func() {
				So(err, ShouldBeNil)
				ids := []string{out[0].ID, out[1].ID, out[2].ID}
				So(ids, ShouldResemble, []string{"1", "2", "3"})
			})
		})

		Convey("When topN is smaller than the pool", func() {
			employees := []model.Employee{
				{ID: "a", Name: "a", Skills: []string{"Go", "SQL"}},
				{ID: "b", Name: "b", Skills: []string{"Go"}},
				{ID: "c", Name: "c", Skills: []string{"SQL"}},
			}
			out, err := r.Rank(p1, employees, 1)

			Convey("Then only the best candidate is returned", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].ID, ShouldEqual, "a")
			})
		})

		Convey("When topN is below one", func() {
			_, err := r.Rank(p1, nil, 0)

			Convey("Then the input is rejected", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the project has no requirements", func() {
			out, err := r.Rank(model.Project{ID: "empty"}, []model.Employee{{ID: "a", Name: "a", Skills: []string{"Go"}}}, 5)

			Convey("Then nobody qualifies", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
			})
		})
	})
}

func TestRanker_ParallelMatchesSequential(t *testing.T) {
	Convey("Given a large employee pool", t, func() {
		skills := []string{"Go", "SQL", "React", "Kafka", "Terraform"}
		project := model.Project{ID: "big", RequiredSkills: []string{"Go", "SQL", "Kafka"}}
		employees := make([]model.Employee, 0, 3000)
		for i := range 3000 {
			e := model.Employee{
				ID:     fmt.Sprintf("e%04d", i),
				Name:   fmt.Sprintf("Employee %d", i%97),
				Skills: []string{skills[i%5], skills[(i/5)%5]},
			}
			if i%3 == 0 {
				e.AvailabilityDates = []model.Date{model.NewDate(2025, time.April, 1)}
			}
			employees = append(employees, e)
		}

		sequential, err := ranking.NewRanker(scoring.NewMatcher(), ranking.WithParallelism(1)).Rank(project, employees, 50)
		So(err, ShouldBeNil)
		parallel, err := ranking.NewRanker(scoring.NewMatcher(), ranking.WithParallelism(8)).Rank(project, employees, 50)
		So(err, ShouldBeNil)

		Convey("Then the results are identical", func() {
			So(parallel, ShouldResemble, sequential)
		})

		Convey("Then the output is sorted and every candidate matched something", func() {
			So(slices.IsSortedFunc(parallel, ranking.Compare), ShouldBeTrue)
			for _, c := range parallel {
				So(c.MatchedSkills, ShouldNotBeEmpty)
				So(c.Score, ShouldBeBetweenOrEqual, 0, 1)
			}
		})
	})
}
