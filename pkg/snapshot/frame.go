package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Raw capture input
// =============================================================================

// RawEntity is one entity as captured inside a single process, before
// normalization. Ids are process-local and timestamps process-relative.
type RawEntity struct {
	LocalID string          `json:"local_id" bson:"local_id"`
	Body    json.RawMessage `json:"body,omitempty" bson:"body,omitempty"`
	Birth   int64           `json:"birth" bson:"birth"`
	Crate   string          `json:"crate,omitempty" bson:"crate,omitempty"`
	Source  string          `json:"source,omitempty" bson:"source,omitempty"`
}

// RawEdge is a directed relation with process-local endpoints. An endpoint
// that already contains the id separator references an entity in another
// process and is passed through untouched.
type RawEdge struct {
	From string   `json:"from" bson:"from"`
	To   string   `json:"to" bson:"to"`
	Kind EdgeKind `json:"kind" bson:"kind"`
}

// ProcessSnapshot is the capture of one process: its entities, edges, and
// the clock anchors needed to derive ages and approximate wall-clock births.
type ProcessSnapshot struct {
	ProcessID   string `json:"process_id" bson:"process_id"`
	ProcessName string `json:"process_name,omitempty" bson:"process_name,omitempty"`

	// NowMs is the process-relative monotonic "now" at capture time, on the
	// same clock as entity births.
	NowMs int64 `json:"now_ms" bson:"now_ms"`

	// CapturedAtUnixMs is the wall-clock time of the capture as seen by the
	// process. Each process's anchor is independent.
	CapturedAtUnixMs int64 `json:"captured_at_unix_ms" bson:"captured_at_unix_ms"`

	Entities []RawEntity `json:"entities" bson:"entities"`
	Edges    []RawEdge   `json:"edges" bson:"edges"`
}

// Scope is grouping metadata attached to a frame. The core passes scopes
// through untouched.
type Scope struct {
	ID      string     `json:"id" bson:"id"`
	Label   string     `json:"label,omitempty" bson:"label,omitempty"`
	Members []EntityID `json:"members,omitempty" bson:"members,omitempty"`
}

// RawFrame is one full capture of all connected processes at one instant.
// Frames are immutable once produced.
type RawFrame struct {
	Index            int               `json:"index" bson:"index"`
	CapturedAtUnixMs int64             `json:"captured_at_unix_ms" bson:"captured_at_unix_ms"`
	Processes        []ProcessSnapshot `json:"processes" bson:"processes"`
	Scopes           []Scope           `json:"scopes,omitempty" bson:"scopes,omitempty"`
}

// RecordingMeta describes an ordered sequence of frames available from a
// source.
type RecordingMeta struct {
	FrameCount      int     `json:"frame_count" bson:"frame_count"`
	FrameTimestamps []int64 `json:"frame_timestamps,omitempty" bson:"frame_timestamps,omitempty"`
}

// Indices returns the full ordered index list 0..FrameCount-1.
func (m RecordingMeta) Indices() []int {
	out := make([]int, m.FrameCount)
	for i := range out {
		out[i] = i
	}
	return out
}

// =============================================================================
// Entity serialization
// =============================================================================

// entityJSON mirrors Entity with the body in envelope form.
type entityJSON struct {
	ID                EntityID        `json:"id"`
	ProcessID         string          `json:"process_id"`
	ProcessName       string          `json:"process_name,omitempty"`
	Kind              Kind            `json:"kind"`
	Body              json.RawMessage `json:"body,omitempty"`
	Crate             string          `json:"crate,omitempty"`
	Source            string          `json:"source,omitempty"`
	Birth             int64           `json:"birth"`
	AgeMs             int64           `json:"age_ms"`
	ApproxBirthUnixMs int64           `json:"approx_birth_unix_ms,omitempty"`
	InCycle           bool            `json:"in_cycle,omitempty"`
	Status            Status          `json:"status"`
	Stat              string          `json:"stat,omitempty"`
	StatTone          Tone            `json:"stat_tone,omitempty"`
	ChannelPair       *Pair           `json:"channel_pair,omitempty"`
	RPCPair           *Pair           `json:"rpc_pair,omitempty"`
}

// MarshalJSON encodes the entity with its body in {kind, data} envelope
// form so the tagged union survives the round trip.
func (e Entity) MarshalJSON() ([]byte, error) {
	var body json.RawMessage
	if e.Body != nil {
		data, err := MarshalBody(e.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}
	return json.Marshal(entityJSON{
		ID: e.ID, ProcessID: e.ProcessID, ProcessName: e.ProcessName,
		Kind: e.Kind, Body: body, Crate: e.Crate, Source: e.Source,
		Birth: e.Birth, AgeMs: e.AgeMs, ApproxBirthUnixMs: e.ApproxBirthUnixMs,
		InCycle: e.InCycle, Status: e.Status, Stat: e.Stat, StatTone: e.StatTone,
		ChannelPair: e.ChannelPair, RPCPair: e.RPCPair,
	})
}

// UnmarshalJSON decodes an entity, tolerating unknown body variants (they
// decode to a bare future body).
func (e *Entity) UnmarshalJSON(data []byte) error {
	var ej entityJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}
	body, err := UnmarshalBody(ej.Body)
	if err != nil {
		return err
	}
	*e = Entity{
		ID: ej.ID, ProcessID: ej.ProcessID, ProcessName: ej.ProcessName,
		Kind: ej.Kind, Body: body, Crate: ej.Crate, Source: ej.Source,
		Birth: ej.Birth, AgeMs: ej.AgeMs, ApproxBirthUnixMs: ej.ApproxBirthUnixMs,
		InCycle: ej.InCycle, Status: ej.Status, Stat: ej.Stat, StatTone: ej.StatTone,
		ChannelPair: ej.ChannelPair, RPCPair: ej.RPCPair,
	}
	return nil
}

// =============================================================================
// Raw frame round trip
// =============================================================================

// ReadRawFrame decodes a raw frame from r.
func ReadRawFrame(r io.Reader) (RawFrame, error) {
	var f RawFrame
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return RawFrame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// ReadRawFrameFile reads a raw frame from a JSON file.
func ReadRawFrameFile(path string) (RawFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRawFrame(f)
}

// WriteRawFrame encodes a raw frame as indented JSON to w.
func WriteRawFrame(f RawFrame, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// WriteRawFrameFile writes a raw frame to a JSON file with 0644 permissions.
func WriteRawFrameFile(f RawFrame, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return WriteRawFrame(f, out)
}
