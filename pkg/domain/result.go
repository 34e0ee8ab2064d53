package domain

// Result is the output contract of a validator.
//
// Valid selects the transition branch. Reply is the response shape to send; on the
// valid branch a nil Reply falls back to the action table's static text. Data is
// validator specific and is not persisted by the dispatcher.
type Result struct {
	Valid bool
	Data  any
	Reply *Reply

	// RequiresControls asks the dispatcher to record a NavControl entry for the sent
	// message. FirstStep, LastStep and Type are copied onto that entry.
	RequiresControls bool
	FirstStep        bool
	LastStep         bool
	Type             string
}

// Valid returns a valid result carrying reply.
func Valid(reply *Reply) Result {
	return Result{Valid: true, Reply: reply}
}

// Invalid returns an invalid result carrying reply.
func Invalid(reply *Reply) Result {
	return Result{Valid: false, Reply: reply}
}
