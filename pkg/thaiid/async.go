package thaiid

import "fmt"

// Result is the outcome of a background read: exactly one of Record and Err is set.
type Result struct {
	Record *Record
	Err    error
}

// Start runs Read on its own goroutine. The channel delivers one Result and is then closed.
// A caller that stops listening does not leak the goroutine and the card is still released.
func (r *Reader) Start(dev Device) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)
		defer func() {
			if p := recover(); p != nil {
				out <- Result{Err: fmt.Errorf("card read panicked: %v", p)}
			}
		}()

		rec, err := r.Read(dev)
		out <- Result{Record: rec, Err: err}
	}()

	return out
}
