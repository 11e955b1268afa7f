package hostgate

// Recorder is told about every admission decision made by a Registry.
// It is called outside of any bucket lock and must be safe for concurrent use.
type Recorder interface {
	RecordRequest(key string, allowed bool)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(key string, allowed bool)

// RecordRequest calls f(key, allowed).
func (f RecorderFunc) RecordRequest(key string, allowed bool) {
	f(key, allowed)
}

type multiRecorder []Recorder

func (m multiRecorder) RecordRequest(key string, allowed bool) {
	for _, r := range m {
		r.RecordRequest(key, allowed)
	}
}

// Recorders returns a Recorder that forwards to every non-nil recorder in order.
func Recorders(recorders ...Recorder) Recorder {
	m := make(multiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}
