package snapshot

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates entity body variants. It is derived from the active
// body variant during normalization and doubles as the filterable "kind"
// facet exposed to visibility filters.
type Kind string

// Entity kinds, one per body variant plus the synthetic pair kinds.
const (
	KindFuture    Kind = "future"
	KindLock      Kind = "lock"
	KindChannelTx Kind = "channel_tx"
	KindChannelRx Kind = "channel_rx"
	KindChannel   Kind = "channel" // merged tx/rx pair
	KindSemaphore Kind = "semaphore"
	KindOnceCell  Kind = "once_cell"
	KindNotify    Kind = "notify"
	KindCommand   Kind = "command"
	KindFile      Kind = "file"
	KindNet       Kind = "net"
	KindRequest   Kind = "request"
	KindResponse  Kind = "response"
	KindRPC       Kind = "rpc" // merged request/response pair
)

// Body is the closed tagged union of resource-specific entity state.
// Exactly one variant is active per entity; a nil Body is the sentinel
// "no body fields" case used for bare futures.
//
// The set of variants is closed: consumers switch exhaustively on the
// concrete type (or on [Body.BodyKind]) and treat anything unknown as a
// bare future.
type Body interface {
	// BodyKind returns the discriminator for the variant.
	BodyKind() Kind
}

// ChannelHalf distinguishes the two ends of a channel.
type ChannelHalf string

// Channel halves.
const (
	HalfTx ChannelHalf = "tx"
	HalfRx ChannelHalf = "rx"
)

// LockBody describes a mutex-family lock.
type LockBody struct {
	LockKind string `json:"lock_kind,omitempty" bson:"lock_kind,omitempty"` // "mutex", "rwlock", ...
	Held     bool   `json:"held" bson:"held"`
	Waiters  uint32 `json:"waiters,omitempty" bson:"waiters,omitempty"`
}

// ChannelBody describes one half of a channel, or (after pairing) the
// merged channel node which inherits the body of its tx half.
type ChannelBody struct {
	Half     ChannelHalf `json:"half" bson:"half"`
	ChanKind string      `json:"chan_kind,omitempty" bson:"chan_kind,omitempty"` // "mpsc", "oneshot", "broadcast", "watch"
	Closed   bool        `json:"closed,omitempty" bson:"closed,omitempty"`
	// Len and Capacity describe buffer occupancy for bounded kinds.
	// Capacity is nil for unbounded channels.
	Len      uint64  `json:"len,omitempty" bson:"len,omitempty"`
	Capacity *uint64 `json:"capacity,omitempty" bson:"capacity,omitempty"`
}

// SemaphoreBody describes a counting semaphore.
type SemaphoreBody struct {
	PermitsIssued uint32 `json:"permits_issued" bson:"permits_issued"`
	PermitsTotal  uint32 `json:"permits_total" bson:"permits_total"`
}

// OnceCellBody describes a write-once cell.
type OnceCellBody struct {
	State   string `json:"state" bson:"state"` // "empty", "initializing", "set"
	Waiters uint32 `json:"waiters,omitempty" bson:"waiters,omitempty"`
}

// NotifyBody describes a notification primitive.
type NotifyBody struct {
	Waiters uint32 `json:"waiters,omitempty" bson:"waiters,omitempty"`
}

// CommandBody describes a spawned subprocess operation.
type CommandBody struct {
	Program string `json:"program,omitempty" bson:"program,omitempty"`
}

// FileBody describes an in-flight file operation.
type FileBody struct {
	Path string `json:"path,omitempty" bson:"path,omitempty"`
	Op   string `json:"op,omitempty" bson:"op,omitempty"` // "read", "write", "flush", ...
}

// NetBody describes an in-flight network operation.
type NetBody struct {
	Op   string `json:"op,omitempty" bson:"op,omitempty"` // "connect", "accept", "recv", "send"
	Addr string `json:"addr,omitempty" bson:"addr,omitempty"`
}

// RequestBody describes the request side of an RPC.
type RequestBody struct {
	Method      string `json:"method,omitempty" bson:"method,omitempty"`
	ArgsPreview string `json:"args_preview,omitempty" bson:"args_preview,omitempty"`
}

// ResponseBody describes the response side of an RPC.
type ResponseBody struct {
	Method string `json:"method,omitempty" bson:"method,omitempty"`
	OK     bool   `json:"ok" bson:"ok"`
	Code   string `json:"code,omitempty" bson:"code,omitempty"`
}

func (LockBody) BodyKind() Kind      { return KindLock }
func (SemaphoreBody) BodyKind() Kind { return KindSemaphore }
func (OnceCellBody) BodyKind() Kind  { return KindOnceCell }
func (NotifyBody) BodyKind() Kind    { return KindNotify }
func (CommandBody) BodyKind() Kind   { return KindCommand }
func (FileBody) BodyKind() Kind      { return KindFile }
func (NetBody) BodyKind() Kind       { return KindNet }
func (RequestBody) BodyKind() Kind   { return KindRequest }
func (ResponseBody) BodyKind() Kind  { return KindResponse }

func (b ChannelBody) BodyKind() Kind {
	if b.Half == HalfRx {
		return KindChannelRx
	}
	return KindChannelTx
}

// BodyKindOf returns the discriminator for a body, mapping nil to
// [KindFuture].
func BodyKindOf(b Body) Kind {
	if b == nil {
		return KindFuture
	}
	return b.BodyKind()
}

// bodyEnvelope is the wire form of a Body: the discriminator plus the
// variant's fields flattened alongside it.
type bodyEnvelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalBody encodes a body as a {kind, data} envelope. A nil body encodes
// as the bare future envelope.
func MarshalBody(b Body) ([]byte, error) {
	env := bodyEnvelope{Kind: BodyKindOf(b)}
	if b != nil {
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body %s: %w", env.Kind, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// UnmarshalBody decodes a {kind, data} envelope. Unknown kinds decode to a
// nil body rather than an error: a malformed body variant must never fail
// normalization, it just falls back to the neutral status.
func UnmarshalBody(raw []byte) (Body, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env bodyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode body envelope: %w", err)
	}
	target := newBody(env.Kind)
	if target == nil {
		return nil, nil
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			// Malformed variant payload degrades to a bare future.
			return nil, nil
		}
	}
	return deref(target), nil
}

func newBody(k Kind) any {
	switch k {
	case KindLock:
		return &LockBody{}
	case KindChannelTx, KindChannelRx, KindChannel:
		return &ChannelBody{}
	case KindSemaphore:
		return &SemaphoreBody{}
	case KindOnceCell:
		return &OnceCellBody{}
	case KindNotify:
		return &NotifyBody{}
	case KindCommand:
		return &CommandBody{}
	case KindFile:
		return &FileBody{}
	case KindNet:
		return &NetBody{}
	case KindRequest:
		return &RequestBody{}
	case KindResponse:
		return &ResponseBody{}
	}
	return nil
}

func deref(v any) Body {
	switch b := v.(type) {
	case *LockBody:
		return *b
	case *ChannelBody:
		return *b
	case *SemaphoreBody:
		return *b
	case *OnceCellBody:
		return *b
	case *NotifyBody:
		return *b
	case *CommandBody:
		return *b
	case *FileBody:
		return *b
	case *NetBody:
		return *b
	case *RequestBody:
		return *b
	case *ResponseBody:
		return *b
	}
	return nil
}
