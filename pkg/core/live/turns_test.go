package live

import "testing"

func TestTurnAccumulatorFinalizes(t *testing.T) {
	var acc TurnAccumulator
	acc.AddInput("What is")
	acc.AddInput(" entropy?")
	acc.AddOutput("Entropy is...")

	rec, ok := acc.Complete()
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Question != "What is entropy?" {
		t.Errorf("unexpected question %q", rec.Question)
	}
	if rec.Answer != "Entropy is..." {
		t.Errorf("unexpected answer %q", rec.Answer)
	}
	if acc.Pending() {
		t.Error("accumulators must be empty after turn complete")
	}
}

func TestTurnAccumulatorSilentTurn(t *testing.T) {
	var acc TurnAccumulator

	if _, ok := acc.Complete(); ok {
		t.Error("turn complete with no deltas must emit nothing")
	}
	if acc.Pending() {
		t.Error("accumulators must stay empty")
	}
}

func TestTurnAccumulatorWhitespaceOnlyInput(t *testing.T) {
	var acc TurnAccumulator
	acc.AddInput("   \n ")
	acc.AddOutput("orphaned answer")

	if _, ok := acc.Complete(); ok {
		t.Error("whitespace-only input must emit nothing")
	}
	if acc.Pending() {
		t.Error("both accumulators reset even when no record is emitted")
	}
}

func TestTurnAccumulatorTrims(t *testing.T) {
	var acc TurnAccumulator
	acc.AddInput("  hello ")
	acc.AddOutput("\nhi there  ")

	rec, ok := acc.Complete()
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Question != "hello" || rec.Answer != "hi there" {
		t.Errorf("expected trimmed fields, got %q / %q", rec.Question, rec.Answer)
	}
}

func TestTurnAccumulatorConsecutiveTurns(t *testing.T) {
	var acc TurnAccumulator

	acc.AddInput("first")
	acc.AddOutput("one")
	if rec, ok := acc.Complete(); !ok || rec.Question != "first" {
		t.Fatalf("first turn: got %v %v", rec, ok)
	}

	// Second turn must not see first turn's text.
	acc.AddInput("second")
	rec, ok := acc.Complete()
	if !ok {
		t.Fatal("expected second record")
	}
	if rec.Question != "second" || rec.Answer != "" {
		t.Errorf("second turn leaked state: %+v", rec)
	}
}
