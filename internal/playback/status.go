// internal/playback/status.go
package playback

// Status is the controller's view of playback.
//
//	        Buffer               ReadyPlay
//	Idle ─────────────▶ Preparing ─────────────▶ Playing
//	                       │                     │    ▲
//	                       │ ReadyPause    Pause │    │ Play
//	                       │                     ▼    │
//	                       └───────────────────▶ Paused
//
//	any ─Buffer─▶ Preparing   any ─Finish─▶ Ended
//	any ─Fail─▶ Error         any ─Stop─▶ Idle
type Status int32

const (
	StatusIdle Status = iota
	StatusPreparing
	StatusPlaying
	StatusPaused
	StatusEnded
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusPreparing:
		return "Preparing"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusEnded:
		return "Ended"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Trigger is an input to the status machine.
type Trigger int

const (
	TriggerBuffer     Trigger = iota // media loading
	TriggerReadyPlay                 // media ready, playback requested
	TriggerReadyPause                // media ready, playback not requested
	TriggerPlay                      // play requested
	TriggerPause                     // pause requested or focus lost
	TriggerFinish                    // queue exhausted
	TriggerFail                      // renderer error
	TriggerStop                      // media released
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerBuffer:
		return "Buffer"
	case TriggerReadyPlay:
		return "ReadyPlay"
	case TriggerReadyPause:
		return "ReadyPause"
	case TriggerPlay:
		return "Play"
	case TriggerPause:
		return "Pause"
	case TriggerFinish:
		return "Finish"
	case TriggerFail:
		return "Fail"
	case TriggerStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Transition returns the status after t. It is defined for every status
// and trigger; inputs that do not apply leave the status unchanged.
func Transition(s Status, t Trigger) Status {
	switch t {
	case TriggerBuffer:
		return StatusPreparing
	case TriggerReadyPlay:
		return StatusPlaying
	case TriggerReadyPause:
		return StatusPaused
	case TriggerPlay:
		if s == StatusPaused {
			return StatusPlaying
		}
		return s
	case TriggerPause:
		if s == StatusPlaying {
			return StatusPaused
		}
		return s
	case TriggerFinish:
		return StatusEnded
	case TriggerFail:
		return StatusError
	case TriggerStop:
		return StatusIdle
	default:
		return s
	}
}
