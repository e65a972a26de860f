package scoring

import (
	"testing"
	"time"

	"github.com/compintel/discovery/internal/models"
)

func TestScoreWithinBounds(t *testing.T) {
	funding := int64(5_000_000)
	c := models.BasicCompetitor{
		Name:             "Kuda",
		Website:          "https://kuda.com",
		Description:      "neobank",
		Industry:         "fintech",
		Country:          "NG",
		BusinessModel:    "B2C",
		ValueProposition: "mobile-first banking",
		FoundedYear:      2024,
		FundingUSD:       &funding,
	}
	tc := Context{Industries: []string{"fintech"}, Regions: []string{"NG"}, Now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	got := Score(c, tc)
	want := 30 + 25 + 20 + 15 + 10
	if got != want {
		t.Errorf("Score() = %d, want %d", got, want)
	}
}

func TestScoreNeverNegativeOrOver100(t *testing.T) {
	empty := models.BasicCompetitor{}
	got := Score(empty, Context{})
	if got < 0 || got > 100 {
		t.Errorf("Score() = %d, out of [0,100]", got)
	}
}

func TestScoreIndustryCaseInsensitiveSubstring(t *testing.T) {
	c := models.BasicCompetitor{Industry: "Fintech - Digital Banking"}
	got := Score(c, Context{Industries: []string{"fintech"}})
	if got < 30 {
		t.Errorf("expected industry match bonus, got %d", got)
	}
}

func TestFoundedRecencyBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		year int
		want int
	}{
		{2026, 15},
		{2023, 15},
		{2021, 10},
		{2017, 5},
		{2000, 0},
	}
	for _, tc := range cases {
		c := models.BasicCompetitor{FoundedYear: tc.year}
		got := foundedRecencyScore(c, Context{Now: now})
		if got != tc.want {
			t.Errorf("foundedRecencyScore(year=%d) = %d, want %d", tc.year, got, tc.want)
		}
	}
}

func TestFundingScoreBuckets(t *testing.T) {
	high := int64(2_000_000)
	low := int64(150_000)
	tiny := int64(1_000)
	cases := []struct {
		name string
		v    *int64
		want int
	}{
		{"nil", nil, 0},
		{"high", &high, 10},
		{"low", &low, 5},
		{"tiny", &tiny, 0},
	}
	for _, tc := range cases {
		got := fundingScore(models.BasicCompetitor{FundingUSD: tc.v})
		if got != tc.want {
			t.Errorf("%s: fundingScore = %d, want %d", tc.name, got, tc.want)
		}
	}
}
