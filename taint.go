package semmatch

// Token is a piece of source text with its location.
type Token struct {
	Content string `json:"content"`
	Range   Range  `json:"location"`
}

// CallTrace is one end of a taint trace. When the source or sink is reached
// through a function call, Next holds the trace inside the callee and
// Intermediate the tokens crossed on the way.
type CallTrace struct {
	Content      string
	Range        Range
	Intermediate []Token
	Next         *CallTrace
}

// Depth returns the number of call levels in the trace.
func (c *CallTrace) Depth() int {
	n := 0
	for t := c; t != nil; t = t.Next {
		n++
	}
	return n
}

// Innermost returns the deepest level of the call chain.
func (c *CallTrace) Innermost() *CallTrace {
	t := c
	for t != nil && t.Next != nil {
		t = t.Next
	}
	return t
}

// TaintTrace records how untrusted data reached a sink: where it came from,
// the tokens it flowed through and the sink it ended up in.
type TaintTrace struct {
	Source       CallTrace
	Intermediate []Token
	Sink         CallTrace
}
