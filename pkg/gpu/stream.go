package gpu

// Stream is a simulated GPU stream: a strict FIFO of enqueued work. All
// transfers sharing a Stream execute in the order they were enqueued
// because the stream is serviced by exactly one worker goroutine -- the
// same guarantee a real CUDA stream gives, used here so that
// Context.RecordEvent (pkg/transfer) fires only after every copy
// enqueued ahead of it on this stream has actually run.
type Stream struct {
	tasks chan func()
}

func newStream() *Stream {
	s := &Stream{tasks: make(chan func(), 256)}
	go s.run()
	return s
}

func (s *Stream) run() {
	for task := range s.tasks {
		task()
	}
}

// Enqueue schedules fn to run after every previously enqueued task on this
// stream has completed. Enqueue itself never blocks the caller (mirroring
// a real async stream enqueue) unless the stream's internal queue is
// momentarily full, matching a bounded hardware command queue.
func (s *Stream) Enqueue(fn func()) {
	s.tasks <- fn
}

// Sync blocks until every task enqueued before this call has run.
func (s *Stream) Sync() {
	done := make(chan struct{})
	s.tasks <- func() { close(done) }
	<-done
}
