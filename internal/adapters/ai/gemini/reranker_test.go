package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/staffing/internal/domain/model"
	"github.com/okian/staffing/internal/domain/rerank"
	. "github.com/smartystreets/goconvey/convey"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func request() rerank.Request {
	start := model.NewDate(2025, time.March, 1)
	return rerank.Request{
		Project: model.Project{
			ID:             "P1",
			Name:           "Payments",
			RequiredSkills: []string{"Go", "SQL"},
			Description:    "Ledger rewrite",
			StartDate:      &start,
		},
		Candidates: []model.Candidate{
			{ID: "a", Name: "Ada", Score: 1, MatchedSkills: []string{"Go", "SQL"},
				AvailabilityDates: []model.Date{model.NewDate(2025, time.March, 3)}},
			{ID: "b", Name: "Bob", Score: 0.5, MatchedSkills: []string{"SQL"}, Availability: "from April"},
		},
	}
}

func TestReranker_Rerank(t *testing.T) {
	Convey("Given a reranker over a stub generator", t, func() {
		stub := &stubGenerator{}
		r := NewReranker(stub, nil)

		Convey("When the model answers with fenced JSON", func() {
			stub.response = "```json\n{\"results\":[{\"id\":\"b\",\"rank\":1,\"reason\":\"Available sooner.\"},{\"id\":\"a\",\"rank\":2,\"reason\":\"Covers Go and SQL.\"}]}\n```"
			out, err := r.Rerank(context.Background(), request())

			Convey("Then judgements are parsed in order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []rerank.Judgement{
					{CandidateID: "b", Rank: 1, Reason: "Available sooner."},
					{CandidateID: "a", Rank: 2, Reason: "Covers Go and SQL."},
				})
			})

			Convey("And the prompt carries the project and candidates", func() {
				So(stub.lastPrompt, ShouldContainSubstring, `"required_skills": [`)
				So(stub.lastPrompt, ShouldContainSubstring, `"start_date": "2025-03-01"`)
				So(stub.lastPrompt, ShouldContainSubstring, `"2025-03-03"`)
				So(stub.lastPrompt, ShouldContainSubstring, `"availability": "from April"`)
				So(strings.Contains(stub.lastPrompt, "{{"), ShouldBeFalse)
			})
		})

		Convey("When ids come back as numbers and ranks are missing", func() {
			stub.response = `{"results":[{"id":7,"reason":"ok"}]}`
			out, err := r.Rerank(context.Background(), request())

			Convey("Then they are coerced", func() {
				So(err, ShouldBeNil)
				So(out[0].CandidateID, ShouldEqual, "7")
				So(out[0].Rank, ShouldEqual, 0)
			})
		})

		Convey("When the model answers with prose", func() {
			stub.response = "Ada is the best choice."
			_, err := r.Rerank(context.Background(), request())

			Convey("Then the response is malformed", func() {
				So(errors.Is(err, rerank.ErrMalformedResponse), ShouldBeTrue)
			})
		})

		Convey("When the results key is missing", func() {
			stub.response = `{"candidates":[]}`
			_, err := r.Rerank(context.Background(), request())

			Convey("Then the response is malformed", func() {
				So(errors.Is(err, rerank.ErrMalformedResponse), ShouldBeTrue)
			})
		})

		Convey("When the generator fails", func() {
			stub.err = context.DeadlineExceeded
			_, err := r.Rerank(context.Background(), request())

			Convey("Then the error is returned as is", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestNewGenerator(t *testing.T) {
	Convey("Given an empty api key", t, func() {
		_, err := NewGenerator(context.Background(), "  ", "")

		Convey("Then the generator is not created", func() {
			So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
		})
	})

	Convey("Given a nil generator", t, func() {
		var g *Generator
		_, err := g.GenerateContent(context.Background(), "hi")

		Convey("Then it reports it is not initialized", func() {
			So(errors.Is(err, ErrNotInitialized), ShouldBeTrue)
			So(g.Model(), ShouldEqual, "")
		})
	})
}

func TestExtractJSON(t *testing.T) {
	Convey("Given fenced and bare payloads", t, func() {
		So(extractJSON("```\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		So(extractJSON("  {\"a\":1} "), ShouldEqual, `{"a":1}`)
	})
}
