package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ehrlich-b/wezmux/internal/ptysystem"
	"github.com/ehrlich-b/wezmux/internal/tab"
)

// TestPingPongRoundTrip covers scenario S1: client sends Ping with
// serial=7, decoding yields the same serial and a Ping payload; a Pong
// encoded under serial=7 likewise decodes with serial=7 and the Pong tag.
func TestPingPongRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Pdu{Tag: TagPing, Ping: &Ping{}}, 7); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Serial != 7 {
		t.Errorf("Serial = %d, want 7", decoded.Serial)
	}
	if decoded.Pdu.Tag != TagPing || decoded.Pdu.Ping == nil {
		t.Errorf("decoded Pdu = %+v, want a Ping payload", decoded.Pdu)
	}

	var pongBuf bytes.Buffer
	if err := Encode(&pongBuf, Pdu{Tag: TagPong, Pong: &Pong{}}, 7); err != nil {
		t.Fatalf("Encode(Pong): %v", err)
	}
	decodedPong, err := Decode(&pongBuf)
	if err != nil {
		t.Fatalf("Decode(Pong): %v", err)
	}
	if decodedPong.Serial != 7 || decodedPong.Pdu.Tag != TagPong {
		t.Errorf("decodedPong = %+v, want serial=7 tag=Pong", decodedPong)
	}
}

// TestUnknownIdentDecodesToInvalid covers property 4 and scenario S6.
func TestUnknownIdentDecodesToInvalid(t *testing.T) {
	var buf bytes.Buffer
	if err := encodeRaw(&buf, 0xdeadbeef, 0x42, []byte("hello"), false); err != nil {
		t.Fatalf("encodeRaw: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Serial != 0x42 {
		t.Errorf("Serial = %#x, want 0x42", decoded.Serial)
	}
	if decoded.Pdu.Invalid == nil || decoded.Pdu.Invalid.Ident != 0xdeadbeef {
		t.Errorf("decoded Pdu = %+v, want Invalid{Ident: 0xdeadbeef}", decoded.Pdu)
	}
}

// TestCompressionBelowThresholdNeverCompresses covers property 3 for the
// small-payload case: a tiny ListTabs request must always encode
// uncompressed.
func TestCompressionBelowThresholdNeverCompresses(t *testing.T) {
	data, compressed, err := serialize(&ListTabs{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(data) > compressThreshold {
		t.Fatalf("test payload unexpectedly exceeds threshold (%d bytes)", len(data))
	}
	if compressed {
		t.Errorf("compressed = true for a %d-byte payload, want false", len(data))
	}
}

// TestCompressionAboveThresholdPicksShorter covers property 3 for the
// large, highly-compressible-payload case.
func TestCompressionAboveThresholdPicksShorter(t *testing.T) {
	lines := make([]DirtyLine, 50)
	for i := range lines {
		lines[i] = DirtyLine{LineIndex: i, Line: strings.Repeat("x", 80)}
	}
	resp := &GetCoarseTabRenderableDataResponse{
		PhysicalRows: 50,
		PhysicalCols: 80,
		DirtyLines:   lines,
		Title:        "test",
	}

	uncompressed, err := cborEncMode.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(uncompressed) <= compressThreshold {
		t.Fatalf("test payload too small to exercise compression (%d bytes)", len(uncompressed))
	}

	data, compressed, err := serialize(resp)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !compressed {
		t.Errorf("compressed = false for a highly repetitive %d-byte payload", len(uncompressed))
	}
	if len(data) >= len(uncompressed) {
		t.Errorf("compressed payload (%d bytes) not shorter than uncompressed (%d bytes)", len(data), len(uncompressed))
	}

	var roundTrip GetCoarseTabRenderableDataResponse
	if err := deserialize(data, compressed, &roundTrip); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if roundTrip.Title != "test" || len(roundTrip.DirtyLines) != 50 {
		t.Errorf("round trip mismatch: %+v", roundTrip)
	}
}

// TestSpawnRoundTrip exercises a structurally rich PDU (property 1)
// carrying a domain id, an argv list, env pairs, and a nested PtySize.
func TestSpawnRoundTrip(t *testing.T) {
	spawn := &Spawn{
		DomainID: 1,
		Argv:     []string{"/bin/bash", "-l"},
		Env:      [][2]string{{"TERM", "xterm-256color"}},
		Size:     ptysystem.PtySize{Rows: 24, Cols: 80},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, Pdu{Tag: TagSpawn, Spawn: spawn}, 99); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Pdu.Spawn == nil || decoded.Pdu.Spawn.DomainID != 1 || len(decoded.Pdu.Spawn.Argv) != 2 {
		t.Errorf("decoded Spawn = %+v", decoded.Pdu.Spawn)
	}
}

func TestSendKeyDownRoundTrip(t *testing.T) {
	msg := &SendKeyDown{
		TabID: 5,
		Event: tab.KeyEvent{Code: tab.KeyChar, Rune: 'Q', Mods: tab.ModCtrl},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, Pdu{Tag: TagSendKeyDown, SendKeyDown: msg}, 3); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Pdu.SendKeyDown == nil || decoded.Pdu.SendKeyDown.Event.Rune != 'Q' {
		t.Errorf("decoded SendKeyDown = %+v", decoded.Pdu.SendKeyDown)
	}
}
