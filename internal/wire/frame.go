// Package wire implements the mux RPC wire protocol: varint-framed,
// CBOR-serialized, optionally gzip-compressed PDUs correlated by serial.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ehrlich-b/wezmux/internal/tab"
)

// ErrProtocol is returned for malformed frames or truncated payloads.
var ErrProtocol = tab.ErrProtocol

// compressedMask is the high bit of tagged_len, set iff the payload is
// compressed.
const compressedMask uint64 = 1 << 63

// compressThreshold is the uncompressed-payload size above which
// compression is attempted at all.
const compressThreshold = 32

// encodedLength returns the number of bytes the unsigned varint encoding
// of value occupies, without writing it anywhere.
func encodedLength(value uint64) int {
	var buf [binary.MaxVarintLen64]byte
	return binary.PutUvarint(buf[:], value)
}

// encodeRaw writes one frame: tagged_len, serial, ident (each a LEB128
// unsigned varint via encoding/binary, which is bit-for-bit LEB128),
// followed by the raw payload. tagged_len's high bit is set iff
// isCompressed.
func encodeRaw(w io.Writer, ident, serial uint64, data []byte, isCompressed bool) error {
	length := uint64(len(data)) + uint64(encodedLength(ident)) + uint64(encodedLength(serial))
	maskedLen := length
	if isCompressed {
		maskedLen |= compressedMask
	}

	var hdr [3 * binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], maskedLen)
	n += binary.PutUvarint(hdr[n:], serial)
	n += binary.PutUvarint(hdr[n:], ident)

	buf := make([]byte, 0, n+len(data))
	buf = append(buf, hdr[:n]...)
	buf = append(buf, data...)

	_, err := w.Write(buf)
	return err
}

// decodedRaw is one decoded frame prior to PDU-level deserialization.
type decodedRaw struct {
	ident        uint64
	serial       uint64
	data         []byte
	isCompressed bool
}

// byteReader is the minimal interface binary.ReadUvarint requires.
type byteReader interface {
	io.Reader
	io.ByteReader
}

func readUvarint(r byteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// decodeRaw reads a single frame from r. r must support ReadByte (wrap
// with bufio.NewReader if it doesn't).
func decodeRaw(r byteReader) (decodedRaw, error) {
	length, err := readUvarint(r)
	if err != nil {
		return decodedRaw{}, err
	}
	isCompressed := length&compressedMask != 0
	length &^= compressedMask

	serial, err := readUvarint(r)
	if err != nil {
		return decodedRaw{}, err
	}
	ident, err := readUvarint(r)
	if err != nil {
		return decodedRaw{}, err
	}

	headerLen := uint64(encodedLength(ident)) + uint64(encodedLength(serial))
	if length < headerLen {
		return decodedRaw{}, fmt.Errorf("wire: %w: tagged_len %d shorter than header %d", ErrProtocol, length, headerLen)
	}
	dataLen := length - headerLen

	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return decodedRaw{}, err
	}

	return decodedRaw{ident: ident, serial: serial, data: data, isCompressed: isCompressed}, nil
}

// NewByteReader wraps r so it satisfies byteReader if it doesn't already
// implement ReadByte.
func NewByteReader(r io.Reader) byteReader {
	if br, ok := r.(byteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
