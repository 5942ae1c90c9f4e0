package monitor

import "time"

// Status is a point-in-time snapshot of the backing stores.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Online reports whether both primary stores answered the last probe.
func (s Status) Online() bool {
	return s.PostgreSQL && s.Redis
}
