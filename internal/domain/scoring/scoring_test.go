package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/staffing/internal/domain/model"
	scoring "github.com/okian/staffing/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func employee(id, name string, skills []string, dates ...model.Date) model.Employee {
	return model.Employee{ID: id, Name: name, Skills: skills, AvailabilityDates: dates}
}

func TestMatcher_Score(t *testing.T) {
	Convey("Given a matcher with the default bonus", t, func() {
		m := scoring.NewMatcher()
		project := model.Project{ID: "p1", Name: "Payments", RequiredSkills: []string{"Go", "SQL"}}

		Convey("When the employee covers every required skill", func() {
			res := m.Score(employee("a", "A", []string{"go", "sql", "react"}), project)

			Convey("Then the score is full coverage", func() {
				So(res.Score, ShouldEqual, 1.0)
				So(res.MatchedSkills, ShouldResemble, []string{"go", "sql"})
			})
		})

		Convey("When the employee covers half of the requirements", func() {
			res := m.Score(employee("b", "B", []string{"SQL"}), project)

			Convey("Then the score is 0.5", func() {
				So(res.Score, ShouldEqual, 0.5)
				So(res.MatchedSkills, ShouldResemble, []string{"SQL"})
			})
		})

		Convey("When matched skills are listed in a different order", func() {
			res := m.Score(employee("c", "C", []string{"  Sql ", "GO"}), project)

			Convey("Then they follow the requirement order with the employee's spelling", func() {
				So(res.MatchedSkills, ShouldResemble, []string{"GO", "Sql"})
			})
		})

		Convey("When the project has no required skills", func() {
			res := m.Score(employee("d", "D", []string{"Go"}, model.NewDate(2025, time.January, 1)), model.Project{ID: "p2"})

			Convey("Then the score is zero with an empty match set", func() {
				So(res.Score, ShouldEqual, 0)
				So(res.MatchedSkills, ShouldNotBeNil)
				So(res.MatchedSkills, ShouldBeEmpty)
			})
		})

		Convey("When the employee has availability dates", func() {
			withDates := m.Score(employee("e", "E", []string{"Go"}, model.NewDate(2025, time.March, 1)), project)
			without := m.Score(employee("f", "F", []string{"Go"}), project)

			Convey("Then the bonus breaks the tie without crossing a coverage step", func() {
				So(withDates.Score, ShouldBeGreaterThan, without.Score)
				So(withDates.Score, ShouldBeLessThan, 1.0)
				So(withDates.Score, ShouldAlmostEqual, 0.55, 1e-9)
			})
		})

		Convey("When an employee matches nothing but is available", func() {
			res := m.Score(employee("g", "G", []string{"Java"}, model.NewDate(2025, time.March, 1)), project)

			Convey("Then no bonus is applied", func() {
				So(res.Score, ShouldEqual, 0)
				So(res.MatchedSkills, ShouldBeEmpty)
			})
		})

		Convey("When the project repeats a requirement in different casing", func() {
			dup := model.Project{ID: "p3", RequiredSkills: []string{"Go", "go", "SQL"}}
			res := m.Score(employee("h", "H", []string{"Go"}), dup)

			Convey("Then duplicates are counted once", func() {
				So(res.Score, ShouldEqual, 0.5)
			})
		})

		Convey("When scoring the same pair twice", func() {
			e := employee("i", "I", []string{"Go", "SQL"}, model.NewDate(2025, time.May, 5))
			first := m.Score(e, project)
			second := m.Score(e, project)

			Convey("Then the results are identical", func() {
				So(first, ShouldResemble, second)
			})
		})
	})

	Convey("Given a matcher with a large bonus", t, func() {
		m := scoring.NewMatcher(scoring.WithAvailabilityBonus(0.9))
		project := model.Project{ID: "p1", RequiredSkills: []string{"Go", "SQL"}}

		Convey("When scoring a fully covered available employee", func() {
			res := m.Score(employee("a", "A", []string{"Go", "SQL"}, model.NewDate(2025, time.June, 1)), project)

			Convey("Then the score is clamped to one and ties an unavailable full match", func() {
				So(res.Score, ShouldEqual, 1.0)
				unavailable := m.Score(employee("z", "Z", []string{"Go", "SQL"}), project)
				So(unavailable.Score, ShouldEqual, res.Score)
			})
		})

		Convey("When scoring a half covered available employee", func() {
			res := m.Score(employee("b", "B", []string{"Go"}, model.NewDate(2025, time.June, 1)), project)

			Convey("Then the bonus is capped at half a requirement step", func() {
				So(res.Score, ShouldAlmostEqual, 0.75, 1e-9)
			})
		})
	})

	Convey("Given a negative bonus option", t, func() {
		m := scoring.NewMatcher(scoring.WithAvailabilityBonus(-1))

		Convey("Then the default is kept", func() {
			So(m.AvailabilityBonus(), ShouldEqual, scoring.DefaultAvailabilityBonus)
		})
	})
}
