package board

// Level is the severity of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notification is a user-facing message raised by the board
type Notification struct {
	Level Level
	// Action is the mutation that settled: "reassign", "resize" or "create"
	Action        string
	AppointmentID string
	Message       string
	Err           error
}

// Notifier receives notifications. Notify is called without the board lock
// held, from the goroutine that completed the mutation.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Tee returns a Notifier that forwards to each non-nil notifier in order
func Tee(notifiers ...Notifier) Notifier {
	var targets []Notifier
	for _, n := range notifiers {
		if n != nil {
			targets = append(targets, n)
		}
	}
	return NotifierFunc(func(n Notification) {
		for _, t := range targets {
			t.Notify(n)
		}
	})
}
