package snapshot

import "fmt"

// Tone grades a status or stat for presentation severity.
type Tone string

// Severity tones, mildest first.
const (
	ToneNeutral Tone = "neutral"
	ToneOK      Tone = "ok"
	ToneWarn    Tone = "warn"
	ToneBad     Tone = "bad"
)

// Status is the derived presentation summary of an entity.
type Status struct {
	Label string `json:"label" bson:"label"`
	Tone  Tone   `json:"tone" bson:"tone"`
}

// DeriveStatus computes the status summary for a body. It is a total
// function: every variant has a case, and an absent or unknown body yields
// the neutral "polling" status.
func DeriveStatus(b Body) Status {
	switch v := b.(type) {
	case LockBody:
		if !v.Held {
			return Status{Label: "free", Tone: ToneOK}
		}
		if v.Waiters > 0 {
			return Status{Label: "held, contended", Tone: ToneWarn}
		}
		return Status{Label: "held", Tone: ToneNeutral}

	case ChannelBody:
		if v.Closed {
			return Status{Label: "closed", Tone: ToneWarn}
		}
		if v.Capacity != nil && *v.Capacity > 0 && v.Len >= *v.Capacity {
			return Status{Label: "full", Tone: ToneWarn}
		}
		return Status{Label: "open", Tone: ToneOK}

	case SemaphoreBody:
		if v.PermitsTotal > 0 && v.PermitsIssued >= v.PermitsTotal {
			return Status{Label: "exhausted", Tone: ToneWarn}
		}
		return Status{Label: "available", Tone: ToneOK}

	case OnceCellBody:
		switch v.State {
		case "set":
			return Status{Label: "set", Tone: ToneOK}
		case "initializing":
			return Status{Label: "initializing", Tone: ToneNeutral}
		default:
			return Status{Label: "empty", Tone: ToneNeutral}
		}

	case NotifyBody:
		if v.Waiters > 0 {
			return Status{Label: "waiting", Tone: ToneNeutral}
		}
		return Status{Label: "idle", Tone: ToneNeutral}

	case CommandBody:
		return Status{Label: "running", Tone: ToneNeutral}

	case FileBody:
		if v.Op != "" {
			return Status{Label: v.Op, Tone: ToneNeutral}
		}
		return Status{Label: "io", Tone: ToneNeutral}

	case NetBody:
		if v.Op != "" {
			return Status{Label: v.Op, Tone: ToneNeutral}
		}
		return Status{Label: "net", Tone: ToneNeutral}

	case RequestBody:
		return Status{Label: "awaiting response", Tone: ToneNeutral}

	case ResponseBody:
		if v.OK {
			return Status{Label: "ok", Tone: ToneOK}
		}
		return Status{Label: "error", Tone: ToneBad}
	}

	// Bare future or unknown variant.
	return Status{Label: "polling", Tone: ToneNeutral}
}

// DeriveStat computes the optional secondary stat line for a body. It
// returns "" with a neutral tone for variants that have no meaningful
// counter.
func DeriveStat(b Body) (string, Tone) {
	switch v := b.(type) {
	case LockBody:
		if v.Waiters > 0 {
			return fmt.Sprintf("%d waiting", v.Waiters), ToneWarn
		}
	case ChannelBody:
		if v.Capacity != nil {
			tone := ToneNeutral
			if *v.Capacity > 0 && v.Len >= *v.Capacity {
				tone = ToneWarn
			}
			return fmt.Sprintf("%d/%d", v.Len, *v.Capacity), tone
		}
		if v.Len > 0 {
			return fmt.Sprintf("%d queued", v.Len), ToneNeutral
		}
	case SemaphoreBody:
		tone := ToneNeutral
		if v.PermitsTotal > 0 && v.PermitsIssued >= v.PermitsTotal {
			tone = ToneWarn
		}
		return fmt.Sprintf("%d/%d permits", v.PermitsIssued, v.PermitsTotal), tone
	case OnceCellBody:
		if v.Waiters > 0 {
			return fmt.Sprintf("%d waiting", v.Waiters), ToneNeutral
		}
	case NotifyBody:
		if v.Waiters > 0 {
			return fmt.Sprintf("%d waiting", v.Waiters), ToneNeutral
		}
	case CommandBody:
		if v.Program != "" {
			return v.Program, ToneNeutral
		}
	case FileBody:
		if v.Path != "" {
			return v.Path, ToneNeutral
		}
	case NetBody:
		if v.Addr != "" {
			return v.Addr, ToneNeutral
		}
	case RequestBody:
		if v.ArgsPreview != "" {
			return v.ArgsPreview, ToneNeutral
		}
	case ResponseBody:
		if v.Code != "" {
			tone := ToneNeutral
			if !v.OK {
				tone = ToneBad
			}
			return v.Code, tone
		}
	}
	return "", ToneNeutral
}
