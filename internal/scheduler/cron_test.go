package scheduler

import (
	"testing"
	"time"
)

func TestParseCron_Valid(t *testing.T) {
	expr, err := ParseCron("0 3 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}
	if expr.String() != "0 3 * * *" {
		t.Errorf("String() = %q", expr.String())
	}
}

func TestParseCron_Invalid(t *testing.T) {
	if _, err := ParseCron("not a cron"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCronExpr_Matches(t *testing.T) {
	expr, err := ParseCron("30 2 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	at := time.Date(2026, 8, 24, 2, 30, 45, 0, time.UTC)
	if !expr.Matches(at) {
		t.Errorf("expected match at %v", at)
	}

	off := time.Date(2026, 8, 24, 2, 31, 0, 0, time.UTC)
	if expr.Matches(off) {
		t.Errorf("unexpected match at %v", off)
	}
}

func TestCronExpr_EveryMinute(t *testing.T) {
	expr, err := ParseCron("* * * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}
	if !expr.Matches(time.Now()) {
		t.Error("expected every-minute expression to match")
	}
}

func TestCronExpr_Next(t *testing.T) {
	expr, err := ParseCron("0 0 * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	from := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	next := expr.Next(from)
	want := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}
