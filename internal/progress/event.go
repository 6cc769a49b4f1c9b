package progress

// Status discriminates the event union on the wire.
type Status string

// Supported event statuses. Finished and Error are terminal; exactly one of
// them is emitted per job and it is always the last event delivered.
const (
	StatusPreparing   Status = "preparing"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

// Event is one progress frame delivered to the observer. A zero Status with
// KeepAlive set marks a heartbeat frame synthesized by the channel on consumer
// idle timeout; heartbeats are never produced by the job itself.
type Event struct {
	Status     Status  `json:"status,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	// PercentageLabel carries the formatted percentage ("42.5%").
	PercentageLabel string `json:"percentage_str,omitempty"`
	// Speed is the formatted transfer rate ("1.46 MB/s", "N/A").
	Speed string `json:"speed,omitempty"`
	// ETA is the formatted time remaining ("01:05", "--:--", "Done").
	ETA        string `json:"eta,omitempty"`
	Downloaded string `json:"downloaded,omitempty"`
	Total      string `json:"total,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Message    string `json:"message,omitempty"`
	KeepAlive  bool   `json:"keep_alive,omitempty"`
}

// Terminal reports whether the event ends the observer's stream.
func (e Event) Terminal() bool {
	return e.Status == StatusFinished || e.Status == StatusError
}

// Preparing builds a qualitative status event.
func Preparing(message string) Event {
	return Event{Status: StatusPreparing, Message: message}
}

// Processing builds the post-transfer event emitted while muxing or
// transcoding may still be running. Percentage is pinned at 100.
func Processing(message string) Event {
	return Event{
		Status:          StatusProcessing,
		Percentage:      100,
		PercentageLabel: "100%",
		Speed:           "-",
		ETA:             "Done",
		Message:         message,
	}
}

// Finished builds the successful terminal event.
func Finished(filename string) Event {
	return Event{
		Status:     StatusFinished,
		Percentage: 100,
		Message:    "Download Complete!",
		Filename:   filename,
	}
}

// Errorf builds the failing terminal event.
func Errorf(message string) Event {
	return Event{Status: StatusError, Message: message}
}

// Heartbeat is the keep-alive frame returned by Channel.Receive on timeout.
func Heartbeat() Event {
	return Event{KeepAlive: true}
}
