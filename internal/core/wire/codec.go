// Package wire implements the binary frame envelope, the control-message
// records and the receive-side classification chain. Everything here is
// pure and stateless.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"mirrornet/internal/core/domain"
)

// headerSize is the length prefix in front of the metadata block.
const headerSize = 4

// maxMetadataBytes bounds the declared metadata length so a corrupt prefix
// cannot ask for an absurd allocation.
const maxMetadataBytes = 1 << 20

var (
	// ErrTruncated means the payload is shorter than its header declares.
	ErrTruncated = errors.New("wire: truncated frame envelope")
	// ErrBadMetadata means the metadata block is not a valid record.
	ErrBadMetadata = errors.New("wire: malformed frame metadata")
)

// EncodeFrame builds the length-prefixed envelope:
//
//	u32_le(metadataLen) || metadataBytes || imageBytes
func EncodeFrame(meta domain.FrameMetadata, image []byte) ([]byte, error) {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal frame metadata: %w", err)
	}

	buf := make([]byte, headerSize+len(metaBytes)+len(image))
	binary.LittleEndian.PutUint32(buf[:headerSize], uint32(len(metaBytes)))
	copy(buf[headerSize:], metaBytes)
	copy(buf[headerSize+len(metaBytes):], image)
	return buf, nil
}

// DecodeFrame parses an envelope. On success the returned envelope is always
// internally consistent: the metadata matches the image slice that follows
// it. The image slice is a copy, safe to retain.
func DecodeFrame(data []byte) (domain.FrameEnvelope, error) {
	if len(data) < headerSize {
		return domain.FrameEnvelope{}, ErrTruncated
	}

	metaLen := binary.LittleEndian.Uint32(data[:headerSize])
	if metaLen > maxMetadataBytes || headerSize+int(metaLen) > len(data) {
		return domain.FrameEnvelope{}, ErrTruncated
	}

	var meta domain.FrameMetadata
	if err := json.Unmarshal(data[headerSize:headerSize+int(metaLen)], &meta); err != nil {
		return domain.FrameEnvelope{}, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}
	if !meta.Orientation.Valid() {
		return domain.FrameEnvelope{}, ErrBadMetadata
	}

	image := make([]byte, len(data)-headerSize-int(metaLen))
	copy(image, data[headerSize+int(metaLen):])
	return domain.FrameEnvelope{Metadata: meta, Image: image}, nil
}
