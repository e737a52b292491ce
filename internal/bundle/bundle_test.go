package bundle

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pigeon/internal/model"
)

func sampleBundle() Bundle {
	return Bundle{
		Origin:    "NODE-3F9A0C1B",
		CreatedAt: 1767225600000,
		Events: []model.Event{
			{
				EventID:         "a",
				CreatorDeviceID: "NODE-A1B2",
				EventType:       model.EventSOS,
				Title:           "SOS Signal Detected",
				Description:     "Weak signal detected from sector 7.",
				Latitude:        33.9,
				Longitude:       35.5,
				Timestamp:       1767225500000,
				IsResolved:      true,
				TTL:             259200000,
			},
			{
				EventID:         "b",
				CreatorDeviceID: "NODE-C3D4",
				EventType:       model.EventWater,
				Title:           "Water Supply Issue",
				Timestamp:       1767225400000,
			},
		},
	}
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleBundle()))

	got, err := Read(&buf)
	require.NoError(t, err)

	want := sampleBundle()
	want.Version = Version
	assert.Equal(t, want, got)
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode(sampleBundle())
	require.NoError(t, err)
	b, err := Encode(sampleBundle())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_EmptyEvents(t *testing.T) {
	data, err := Encode(Bundle{Origin: "x"})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, got.Events)
	assert.Empty(t, got.Events)
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	data, err := Encode(Bundle{Version: 99})
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecode_NotZstd(t *testing.T) {
	_, err := Decode([]byte("not a bundle"))
	assert.Error(t, err)
}

func TestDecode_NotCBOR(t *testing.T) {
	_, err := Decode(zstdEncoder.EncodeAll([]byte{0xff, 0xff}, nil))
	assert.Error(t, err)
}

func TestDecode_IgnoresUnknownFields(t *testing.T) {
	raw, err := cbor.Marshal(map[string]any{
		"version": Version,
		"origin":  "NODE-X",
		"future":  "field",
		"events":  []any{},
	})
	require.NoError(t, err)

	got, err := Decode(zstdEncoder.EncodeAll(raw, nil))
	require.NoError(t, err)
	assert.Equal(t, "NODE-X", got.Origin)
}
