package core

// Timer is one scheduled interrupt-level event: the stepper tick, the
// step-pulse lowering one-shot, or any other periodic handler a target
// registers. Handlers run with interrupts masked and must not allocate
// or block; a handler returns SF_RESCHEDULE after bumping WakeTime to
// stay periodic, SF_DONE to stop.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var (
	timerList   *Timer
	currentTime uint32
)

// ScheduleTimer inserts t into the pending list, ordered by WakeTime.
// Safe to call from foreground code while the dispatch IRQ is live: the
// list is only touched inside an interrupt-disable critical section.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	insertTimer(t)
}

func insertTimer(t *Timer) {
	if timerList == nil || t.WakeTime < timerList.WakeTime {
		t.Next = timerList
		timerList = t
		return
	}
	current := timerList
	for current.Next != nil && current.Next.WakeTime < t.WakeTime {
		current = current.Next
	}
	t.Next = current.Next
	current.Next = t
}

// CancelTimer unlinks t if it is still pending. Used by the stepper's
// hard-stop path, where a queued tick must not fire after the ISR has
// been told to halt.
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if timerList == t {
		timerList = t.Next
		t.Next = nil
		return
	}
	for cur := timerList; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// TimerDispatch pops and runs every timer due at currentTime. A handler
// that returns SF_RESCHEDULE is re-inserted at its (handler-updated)
// WakeTime, so a periodic timer that fell behind real time fires
// back-to-back until it catches up rather than dropping ticks.
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && timerList.WakeTime <= currentTime {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil

		result := timer.Handler(timer)
		if result == SF_RESCHEDULE {
			insertTimer(timer)
		}
	}
}
