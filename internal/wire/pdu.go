package wire

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// PDU tags. The tag space is append-only; a retired tag must never be
// reassigned.
const (
	TagErrorResponse                     = 0
	TagPing                               = 1
	TagPong                               = 2
	TagListTabs                           = 3
	TagListTabsResponse                   = 4
	TagGetCoarseTabRenderableData         = 5
	TagGetCoarseTabRenderableDataResponse = 6
	TagSpawn                              = 7
	TagSpawnResponse                      = 8
	TagWriteToTab                         = 9
	TagUnitResponse                       = 10
	TagSendKeyDown                        = 11
	TagSendMouseEvent                     = 12
	TagSendPaste                          = 13
	TagResize                             = 14
	TagSendMouseEventResponse             = 17
)

// Pdu is one decoded protocol message. Exactly one of the payload fields
// is meaningful, selected by Tag. Invalid carries the unrecognized ident
// for tags not in the table (spec: "Unknown tags decode to Invalid{ident}").
type Pdu struct {
	Tag uint64

	Invalid *InvalidPdu

	ErrorResponse                       *ErrorResponse
	Ping                                *Ping
	Pong                                *Pong
	ListTabs                            *ListTabs
	ListTabsResponse                    *ListTabsResponse
	GetCoarseTabRenderableData          *GetCoarseTabRenderableData
	GetCoarseTabRenderableDataResponse  *GetCoarseTabRenderableDataResponse
	Spawn                               *Spawn
	SpawnResponse                       *SpawnResponse
	WriteToTab                          *WriteToTab
	UnitResponse                        *UnitResponse
	SendKeyDown                         *SendKeyDown
	SendMouseEvent                      *SendMouseEvent
	SendPaste                           *SendPaste
	Resize                              *Resize
	SendMouseEventResponse              *SendMouseEventResponse
}

// InvalidPdu is the payload carried by a Pdu whose ident is not in the
// tag table.
type InvalidPdu struct {
	Ident uint64
}

// DecodedPdu pairs a decoded Pdu with the serial it arrived under.
type DecodedPdu struct {
	Serial uint64
	Pdu    Pdu
}

// payloadFor returns the concrete payload struct (as an any) a Pdu carries
// for encoding, or nil plus false for Invalid (which can never be
// encoded — only produced by decode).
func payloadFor(p Pdu) (any, bool) {
	switch p.Tag {
	case TagErrorResponse:
		return p.ErrorResponse, true
	case TagPing:
		return p.Ping, true
	case TagPong:
		return p.Pong, true
	case TagListTabs:
		return p.ListTabs, true
	case TagListTabsResponse:
		return p.ListTabsResponse, true
	case TagGetCoarseTabRenderableData:
		return p.GetCoarseTabRenderableData, true
	case TagGetCoarseTabRenderableDataResponse:
		return p.GetCoarseTabRenderableDataResponse, true
	case TagSpawn:
		return p.Spawn, true
	case TagSpawnResponse:
		return p.SpawnResponse, true
	case TagWriteToTab:
		return p.WriteToTab, true
	case TagUnitResponse:
		return p.UnitResponse, true
	case TagSendKeyDown:
		return p.SendKeyDown, true
	case TagSendMouseEvent:
		return p.SendMouseEvent, true
	case TagSendPaste:
		return p.SendPaste, true
	case TagResize:
		return p.Resize, true
	case TagSendMouseEventResponse:
		return p.SendMouseEventResponse, true
	default:
		return nil, false
	}
}

// newPayload allocates a zero-value payload struct for decoding into, for
// the given known tag.
func newPayload(tag uint64) (any, bool) {
	switch tag {
	case TagErrorResponse:
		return &ErrorResponse{}, true
	case TagPing:
		return &Ping{}, true
	case TagPong:
		return &Pong{}, true
	case TagListTabs:
		return &ListTabs{}, true
	case TagListTabsResponse:
		return &ListTabsResponse{}, true
	case TagGetCoarseTabRenderableData:
		return &GetCoarseTabRenderableData{}, true
	case TagGetCoarseTabRenderableDataResponse:
		return &GetCoarseTabRenderableDataResponse{}, true
	case TagSpawn:
		return &Spawn{}, true
	case TagSpawnResponse:
		return &SpawnResponse{}, true
	case TagWriteToTab:
		return &WriteToTab{}, true
	case TagUnitResponse:
		return &UnitResponse{}, true
	case TagSendKeyDown:
		return &SendKeyDown{}, true
	case TagSendMouseEvent:
		return &SendMouseEvent{}, true
	case TagSendPaste:
		return &SendPaste{}, true
	case TagResize:
		return &Resize{}, true
	case TagSendMouseEventResponse:
		return &SendMouseEventResponse{}, true
	default:
		return nil, false
	}
}

// setPayload installs a decoded payload (produced by newPayload, now
// filled in) back onto a Pdu for the given tag.
func setPayload(p *Pdu, tag uint64, payload any) {
	switch tag {
	case TagErrorResponse:
		p.ErrorResponse = payload.(*ErrorResponse)
	case TagPing:
		p.Ping = payload.(*Ping)
	case TagPong:
		p.Pong = payload.(*Pong)
	case TagListTabs:
		p.ListTabs = payload.(*ListTabs)
	case TagListTabsResponse:
		p.ListTabsResponse = payload.(*ListTabsResponse)
	case TagGetCoarseTabRenderableData:
		p.GetCoarseTabRenderableData = payload.(*GetCoarseTabRenderableData)
	case TagGetCoarseTabRenderableDataResponse:
		p.GetCoarseTabRenderableDataResponse = payload.(*GetCoarseTabRenderableDataResponse)
	case TagSpawn:
		p.Spawn = payload.(*Spawn)
	case TagSpawnResponse:
		p.SpawnResponse = payload.(*SpawnResponse)
	case TagWriteToTab:
		p.WriteToTab = payload.(*WriteToTab)
	case TagUnitResponse:
		p.UnitResponse = payload.(*UnitResponse)
	case TagSendKeyDown:
		p.SendKeyDown = payload.(*SendKeyDown)
	case TagSendMouseEvent:
		p.SendMouseEvent = payload.(*SendMouseEvent)
	case TagSendPaste:
		p.SendPaste = payload.(*SendPaste)
	case TagResize:
		p.Resize = payload.(*Resize)
	case TagSendMouseEventResponse:
		p.SendMouseEventResponse = payload.(*SendMouseEventResponse)
	}
}

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// serialize renders v to its deterministic binary form (canonical CBOR),
// then compresses it with gzip if that's shorter and v exceeds the
// compression threshold.
func serialize(v any) (data []byte, compressed bool, err error) {
	uncompressed, err := cborEncMode.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	if len(uncompressed) <= compressThreshold {
		return uncompressed, false, nil
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, false, err
	}
	if _, err := gz.Write(uncompressed); err != nil {
		return nil, false, err
	}
	if err := gz.Close(); err != nil {
		return nil, false, err
	}

	if buf.Len() < len(uncompressed) {
		return buf.Bytes(), true, nil
	}
	return uncompressed, false, nil
}

func deserialize(data []byte, compressed bool, out any) error {
	if !compressed {
		return cbor.Unmarshal(data, out)
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(raw, out)
}

// Encode writes p to w as one complete frame, under the given serial.
func Encode(w io.Writer, p Pdu, serial uint64) error {
	payload, ok := payloadFor(p)
	if !ok {
		return fmt.Errorf("wire: cannot encode Pdu with tag %d", p.Tag)
	}
	data, compressed, err := serialize(payload)
	if err != nil {
		return err
	}
	return encodeRaw(w, p.Tag, serial, data, compressed)
}

// Decode reads one complete frame from r and deserializes its payload. An
// ident not in the tag table decodes to a Pdu with Tag set to that ident
// and Invalid populated; decoding never fails merely because the tag is
// unrecognized.
func Decode(r io.Reader) (DecodedPdu, error) {
	br := NewByteReader(r)
	raw, err := decodeRaw(br)
	if err != nil {
		return DecodedPdu{}, err
	}

	payload, ok := newPayload(raw.ident)
	if !ok {
		return DecodedPdu{
			Serial: raw.serial,
			Pdu:    Pdu{Tag: raw.ident, Invalid: &InvalidPdu{Ident: raw.ident}},
		}, nil
	}

	if err := deserialize(raw.data, raw.isCompressed, payload); err != nil {
		return DecodedPdu{}, err
	}

	p := Pdu{Tag: raw.ident}
	setPayload(&p, raw.ident, payload)
	return DecodedPdu{Serial: raw.serial, Pdu: p}, nil
}
