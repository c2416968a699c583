package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/okian/staffing/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNormalizeSkills(t *testing.T) {
	convey.Convey("Given raw skill tags", t, func() {
		raw := []string{" Go ", "go", "", "  ", "SQL", "React", "sql"}

		convey.Convey("When normalizing", func() {
			out := model.NormalizeSkills(raw)

			convey.Convey("Then blanks and case-insensitive duplicates are dropped", func() {
				convey.So(out, convey.ShouldResemble, []string{"Go", "SQL", "React"})
			})
		})

		convey.Convey("When splitting a CSV list", func() {
			out := model.SplitCSV("Go, SQL,,  React ,")

			convey.Convey("Then entries are trimmed", func() {
				convey.So(out, convey.ShouldResemble, []string{"Go", "SQL", "React"})
			})
		})

		convey.Convey("Then the skill key is trimmed lower case", func() {
			convey.So(model.SkillKey("  PostgreSQL "), convey.ShouldEqual, "postgresql")
		})
	})
}

func TestDates(t *testing.T) {
	convey.Convey("Given date strings", t, func() {
		convey.Convey("When parsing a plain date", func() {
			d, err := model.ParseDate("2025-03-04")
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.String(), convey.ShouldEqual, "2025-03-04")
		})

		convey.Convey("When parsing a full timestamp", func() {
			d, err := model.ParseDate("2025-03-04T10:11:12Z")

			convey.Convey("Then it is truncated to the date", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.Equal(model.NewDate(2025, time.March, 4)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When parsing a timestamp with a non-UTC offset near midnight", func() {
			d, err := model.ParseDate("2025-03-04T23:30:00-05:00")

			convey.Convey("Then the date is taken in the timestamp's own offset", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.String(), convey.ShouldEqual, "2025-03-04")
			})
		})

		convey.Convey("When taking the date of a time value", func() {
			loc := time.FixedZone("UTC+9", 9*60*60)
			d := model.DateOf(time.Date(2025, time.March, 5, 1, 0, 0, 0, loc))

			convey.Convey("Then the calendar date of its location is kept", func() {
				convey.So(d.Equal(model.NewDate(2025, time.March, 5)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When parsing garbage", func() {
			_, err := model.ParseDate("next week")

			convey.Convey("Then it is an input error", func() {
				convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When normalizing a list", func() {
			out, err := model.ParseDates([]string{"2025-05-02", "2025-05-01", "", "2025-05-02T08:00:00Z"})

			convey.Convey("Then it is sorted ascending without duplicates", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(out), convey.ShouldEqual, 2)
				convey.So(out[0].String(), convey.ShouldEqual, "2025-05-01")
				convey.So(out[1].String(), convey.ShouldEqual, "2025-05-02")
			})
		})

		convey.Convey("When round-tripping through JSON", func() {
			in := []model.Date{model.NewDate(2024, time.December, 31)}
			b, err := json.Marshal(in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `["2024-12-31"]`)

			var out []model.Date
			convey.So(json.Unmarshal(b, &out), convey.ShouldBeNil)
			convey.So(out[0].Equal(in[0]), convey.ShouldBeTrue)
		})
	})
}

func TestProjectValidate(t *testing.T) {
	convey.Convey("Given a project", t, func() {
		start := model.NewDate(2025, time.June, 1)
		end := model.NewDate(2025, time.May, 1)
		p := model.Project{ID: "p1", Name: "Payments"}
		p.Normalize()

		convey.Convey("Then defaults are filled", func() {
			convey.So(p.Priority, convey.ShouldEqual, model.PriorityMedium)
			convey.So(p.Status, convey.ShouldEqual, model.ProjectOpen)
			_, bounded := p.HeadcountLimit()
			convey.So(bounded, convey.ShouldBeFalse)
		})

		convey.Convey("When the start date is after the end date", func() {
			p.StartDate, p.EndDate = &start, &end

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(p.Validate(), model.ErrInvalidInput), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the headcount is negative", func() {
			hc := -1
			p.Headcount = &hc

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(p.Validate(), model.ErrInvalidInput), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the headcount is zero", func() {
			hc := 0
			p.Headcount = &hc

			convey.Convey("Then it is a valid bounded project", func() {
				convey.So(p.Validate(), convey.ShouldBeNil)
				limit, bounded := p.HeadcountLimit()
				convey.So(bounded, convey.ShouldBeTrue)
				convey.So(limit, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestParseEnums(t *testing.T) {
	convey.Convey("Given enum strings", t, func() {
		pr, err := model.ParsePriority("HIGH")
		convey.So(err, convey.ShouldBeNil)
		convey.So(pr, convey.ShouldEqual, model.PriorityHigh)

		st, err := model.ParseProjectStatus("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(st, convey.ShouldEqual, model.ProjectOpen)

		as, err := model.ParseAllocationStatus("canceled")
		convey.So(err, convey.ShouldBeNil)
		convey.So(as, convey.ShouldEqual, model.AllocationCancelled)

		_, err = model.ParseAllocationStatus("pending")
		convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
	})
}

func TestEmployee(t *testing.T) {
	convey.Convey("Given an employee with messy fields", t, func() {
		e := model.Employee{
			ID:                " e1 ",
			Name:              " Ada ",
			Skills:            []string{"Go", " go", "SQL "},
			AvailabilityDates: []model.Date{model.NewDate(2025, 2, 2), model.NewDate(2025, 1, 1)},
		}
		e.Normalize()

		convey.Convey("Then normalization applies the directory invariants", func() {
			convey.So(e.ID, convey.ShouldEqual, "e1")
			convey.So(e.Skills, convey.ShouldResemble, []string{"Go", "SQL"})
			convey.So(e.AvailabilityDates[0].String(), convey.ShouldEqual, "2025-01-01")
			convey.So(e.HasAvailability(), convey.ShouldBeTrue)
			convey.So(e.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And a candidate projection never has nil slices", func() {
			c := model.NewCandidate(model.Employee{ID: "x", Name: "X"}, 0, nil)
			convey.So(c.MatchedSkills, convey.ShouldNotBeNil)
			convey.So(c.AvailabilityDates, convey.ShouldNotBeNil)
		})
	})
}

func TestEmployeeQuery(t *testing.T) {
	convey.Convey("Given an employee", t, func() {
		e := model.Employee{ID: "e1", Name: "Grace Hopper", Role: "Engineer", Skills: []string{"COBOL", "Go"}}

		convey.So(model.EmployeeQuery{}.Match(e), convey.ShouldBeTrue)
		convey.So(model.EmployeeQuery{Query: "hop"}.Match(e), convey.ShouldBeTrue)
		convey.So(model.EmployeeQuery{Role: "engineer"}.Match(e), convey.ShouldBeTrue)
		convey.So(model.EmployeeQuery{Skill: " go "}.Match(e), convey.ShouldBeTrue)
		convey.So(model.EmployeeQuery{Skill: "rust"}.Match(e), convey.ShouldBeFalse)
		convey.So(model.EmployeeQuery{Query: "ada"}.Match(e), convey.ShouldBeFalse)
		convey.So(model.EmployeeQuery{Role: "Manager"}.Match(e), convey.ShouldBeFalse)
	})
}
