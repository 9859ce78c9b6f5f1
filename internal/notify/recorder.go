package notify

import "sync"

// Recorder is a Sink that captures messages for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Warnings  []string
	Errors    []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, message)
}

func (r *Recorder) Warning(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

// All returns every captured message in category order.
func (r *Recorder) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]string, 0, len(r.Successes)+len(r.Warnings)+len(r.Errors))
	all = append(all, r.Successes...)
	all = append(all, r.Warnings...)
	all = append(all, r.Errors...)
	return all
}
