// Package bundle encodes event batches for exchange between nodes.
//
// A bundle file is a single zstd frame wrapping a CBOR document encoded
// with Core Deterministic Encoding (RFC 8949 §4.2). The same events in the
// same order always produce identical bytes, so two nodes can compare
// bundles by hash.
//
// Bundles carry events only. The identity record never leaves the device.
package bundle

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/roach88/pigeon/internal/model"
)

// Version is the bundle format written by this package.
const Version = 1

// MaxSize bounds the decompressed size of a bundle Read will accept.
const MaxSize = 64 << 20

// ErrUnsupportedVersion is returned by Read for bundles written in a
// format this build does not understand.
var ErrUnsupportedVersion = errors.New("unsupported bundle version")

// Bundle is a batch of events exported from one node.
type Bundle struct {
	Version int `cbor:"version"`

	// Origin names the exporting node, usually its node name.
	Origin string `cbor:"origin"`

	// CreatedAt is the export time in Unix milliseconds.
	CreatedAt int64 `cbor:"created_at"`

	Events []model.Event `cbor:"events"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	// zstd.Encoder and zstd.Decoder are safe for concurrent use.
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bundle: CBOR encoder initialization failed: " + err.Error())
	}

	// Unknown fields are ignored so newer minor revisions still import.
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 20,
	}.DecMode()
	if err != nil {
		panic("bundle: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("bundle: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSize))
	if err != nil {
		panic("bundle: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode returns the bundle's wire bytes. A zero Version is written as
// Version.
func Encode(b Bundle) ([]byte, error) {
	if b.Version == 0 {
		b.Version = Version
	}
	if b.Events == nil {
		b.Events = []model.Event{}
	}

	raw, err := encMode.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// Decode parses wire bytes produced by Encode.
func Decode(data []byte) (Bundle, error) {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return Bundle{}, fmt.Errorf("decode bundle: decompress: %w", err)
	}

	var b Bundle
	if err := decMode.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Version != Version {
		return Bundle{}, fmt.Errorf("decode bundle: version %d: %w", b.Version, ErrUnsupportedVersion)
	}
	if b.Events == nil {
		b.Events = []model.Event{}
	}
	return b, nil
}

// Write encodes b to w.
func Write(w io.Writer, b Bundle) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// Read decodes a bundle from r, reading at most MaxSize bytes.
func Read(r io.Reader) (Bundle, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return Bundle{}, fmt.Errorf("read bundle: %w", err)
	}
	if len(data) > MaxSize {
		return Bundle{}, fmt.Errorf("read bundle: larger than %d bytes", MaxSize)
	}
	return Decode(data)
}
