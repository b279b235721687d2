package gcode

// ExecutionOrder enumerates the NIST RS274-NGC §3.4 order-of-execution
// groups Phase 4 (commit) enacts a block in, transcribed from the same
// ordering grbl's gc_execute_block follows. Values are for documentation
// and test assertions; commit.go applies them positionally rather than by
// iterating this slice, since several steps (motion, program flow) need
// data threaded from earlier phases that a generic dispatch table would
// only obscure.
type ExecutionOrder int

const (
	OrderFeedRateMode ExecutionOrder = iota
	OrderFeedRate
	OrderCoordSystemSelect
	OrderSetDistanceMode
	OrderNonModalAction
	OrderMotionMode
	OrderProgramFlow
)

// ExecutionOrderGroups lists the seven steps in the sequence Phase 4
// must apply them.
var ExecutionOrderGroups = [...]ExecutionOrder{
	OrderFeedRateMode,
	OrderFeedRate,
	OrderCoordSystemSelect,
	OrderSetDistanceMode,
	OrderNonModalAction,
	OrderMotionMode,
	OrderProgramFlow,
}
