// Package watch follows input files and reports when they settle after a
// burst of writes.
//
// fsnotify is used when available, watching the parent directory so that
// editors replacing the file by rename are seen. Otherwise the file is
// polled. Events are debounced before being emitted as batches.
package watch

import "time"

// Operation is the kind of change seen on a watched file.
type Operation int

const (
	// OpCreate means the file appeared.
	OpCreate Operation = iota
	// OpModify means the file content changed.
	OpModify
	// OpDelete means the file was removed.
	OpDelete
	// OpRename means the file was moved away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event is a change on a watched file.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	Operation Operation

	// Timestamp is when the change was detected.
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the file must stay quiet before a batch is
	// emitted. Default: 300ms
	Debounce time.Duration

	// PollInterval is used when fsnotify is unavailable or ForcePolling is
	// set. Default: 1s
	PollInterval time.Duration

	// ForcePolling disables fsnotify.
	ForcePolling bool

	// BufferSize is the capacity of the batch channel. Default: 16
	BufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:     300 * time.Millisecond,
		PollInterval: time.Second,
		BufferSize:   16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = defaults.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaults.BufferSize
	}
	return o
}
