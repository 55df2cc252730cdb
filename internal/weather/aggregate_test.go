package weather

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	if _, ok := Summarize(nil); ok {
		t.Fatal("expected no summary for an empty list")
	}

	a := rec(1, "A", 280, 0, 0)
	b := rec(2, "B", 290, 0, 0)
	b.Condition, b.ConditionCode = "Rain", 500
	b.ObservedAt = fixedNow.Add(time.Minute)
	c := rec(3, "C", 300, 0, 0)
	c.Condition, c.ConditionCode = "Rain", 501
	c.Humidity = 80

	s, ok := Summarize([]WeatherRecord{a, b, c})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.Locations != 3 || s.Temperature != 290 || s.Humidity != 60 {
		t.Fatalf("unexpected averages %+v", s)
	}
	if s.Condition != "Rain" || s.ConditionCode != 500 {
		t.Fatalf("expected majority condition Rain/500, got %s/%d", s.Condition, s.ConditionCode)
	}
	if s.Warmest.ID != 3 || s.Coldest.ID != 1 {
		t.Fatalf("unexpected extremes %+v %+v", s.Warmest, s.Coldest)
	}
	if !s.ObservedAt.Equal(b.ObservedAt) {
		t.Fatalf("expected newest observation, got %v", s.ObservedAt)
	}
}

func TestSummarizeTieKeepsFirstCondition(t *testing.T) {
	a := rec(1, "A", 280, 0, 0)
	b := rec(2, "B", 290, 0, 0)
	b.Condition = "Mist"
	s, _ := Summarize([]WeatherRecord{a, b})
	if s.Condition != "Clear" {
		t.Fatalf("expected first condition on tie, got %s", s.Condition)
	}
}
