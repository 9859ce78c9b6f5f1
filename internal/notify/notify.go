package notify

import "log"

// Sink receives user-facing messages. Delivery is fire-and-forget; callers
// never act on the outcome.
type Sink interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}

// LogSink writes notifications to the process log.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Success(message string) {
	log.Printf("[Notify] success: %s", message)
}

func (s *LogSink) Warning(message string) {
	log.Printf("[Notify] warning: %s", message)
}

func (s *LogSink) Error(message string) {
	log.Printf("[Notify] error: %s", message)
}
