package x12

// state is the envelope nesting the decoder is in. Each variant carries the
// entities that are open at that level, so an illegal transition can only be
// expressed by a missing case in a type switch.
type state interface {
	describe() string
}

// idle: no interchange open.
type idle struct{}

// inInterchange: an interchange is open, no group.
type inInterchange struct {
	ic *Interchange
}

// inGroup: a group is open, no transaction.
type inGroup struct {
	ic    *Interchange
	group *Group
}

// inTransaction: a transaction is open and owns a body parser.
type inTransaction struct {
	ic    *Interchange
	group *Group
	tx    *Transaction
	body  BodyParser
}

// skippingTransaction: an ST whose transaction map did not resolve. Body
// segments are dropped until the matching SE.
type skippingTransaction struct {
	ic    *Interchange
	group *Group
	tx    *Transaction
}

func (idle) describe() string { return "idle" }

func (s inInterchange) describe() string {
	return s.ic.ContextLabel()
}

func (s inGroup) describe() string {
	return s.ic.ContextLabel() + " > " + s.group.ContextLabel()
}

func (s inTransaction) describe() string {
	return s.ic.ContextLabel() + " > " + s.group.ContextLabel() + " > " + s.tx.ContextLabel()
}

func (s skippingTransaction) describe() string {
	return s.ic.ContextLabel() + " > " + s.group.ContextLabel() + " > skipped " + s.tx.ContextLabel()
}
