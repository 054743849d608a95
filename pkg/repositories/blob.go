package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/klauspost/compress/zstd"
)

// gameWinner converts a stored winner column back to a team value.
func gameWinner(s string) gametypes.Team {
	return gametypes.Team(s)
}

// encodeState serializes a match to a zstd-compressed JSON blob for storage.
func encodeState(match gametypes.Match) ([]byte, error) {
	b, err := json.Marshal(match)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match state: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress match state: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// decodeState decompresses and deserializes a stored match blob.
func decodeState(data []byte) (gametypes.Match, error) {
	var match gametypes.Match

	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return match, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()

	b, err := io.ReadAll(compReader)
	if err != nil {
		return match, fmt.Errorf("failed to read decompressed match state: %v", err)
	}

	if err := json.Unmarshal(b, &match); err != nil {
		return match, fmt.Errorf("failed to unmarshal match state: %v", err)
	}

	return match, nil
}
