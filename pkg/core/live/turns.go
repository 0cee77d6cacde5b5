package live

import "strings"

// TurnRecord is one finalized exchange: the user's spoken question and the
// assistant's spoken answer.
type TurnRecord struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TurnAccumulator buffers incremental input and output transcript deltas
// until a turn-complete signal arrives, then emits one finalized record and
// resets. It is only touched from the session's event-handling goroutine, so
// it carries no lock.
type TurnAccumulator struct {
	pendingInput  strings.Builder
	pendingOutput strings.Builder
}

// AddInput appends a fragment of the user transcript.
func (a *TurnAccumulator) AddInput(delta string) {
	a.pendingInput.WriteString(delta)
}

// AddOutput appends a fragment of the assistant transcript.
func (a *TurnAccumulator) AddOutput(delta string) {
	a.pendingOutput.WriteString(delta)
}

// Complete processes a turn-complete signal. If the accumulated input is
// non-empty after trimming, it returns the finalized record and true; a
// silence-only turn returns false. Both accumulators are always reset,
// record or not.
func (a *TurnAccumulator) Complete() (TurnRecord, bool) {
	question := strings.TrimSpace(a.pendingInput.String())
	answer := strings.TrimSpace(a.pendingOutput.String())
	a.pendingInput.Reset()
	a.pendingOutput.Reset()

	if question == "" {
		return TurnRecord{}, false
	}
	return TurnRecord{Question: question, Answer: answer}, true
}

// Pending reports whether either accumulator holds any text.
func (a *TurnAccumulator) Pending() bool {
	return a.pendingInput.Len() > 0 || a.pendingOutput.Len() > 0
}
