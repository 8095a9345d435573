package outcome

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Serialization format version. Bump on any change to the encoded
// shape so cached outcomes from older engine versions are detected
// instead of silently misread.
const encodingVersion = 1

// Encode serializes the outcome to a caller-opaque blob: a one-byte
// version tag followed by zstd-compressed JSON. Encoding the same
// outcome twice yields byte-identical blobs.
func Encode(o *TestingOutcome) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcome: %w", err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	blob := make([]byte, 1, len(data)/2+1)
	blob[0] = encodingVersion
	return encoder.EncodeAll(data, blob), nil
}

// Decode restores an outcome from an Encode blob, rejecting blobs
// written by a different engine version.
func Decode(blob []byte) (*TestingOutcome, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty outcome blob")
	}
	if blob[0] != encodingVersion {
		return nil, fmt.Errorf("unsupported outcome encoding version %d", blob[0])
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()
	data, err := decoder.DecodeAll(blob[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress outcome: %w", err)
	}
	var o TestingOutcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}
	return &o, nil
}
