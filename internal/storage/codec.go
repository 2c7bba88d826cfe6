package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/annel0/fps-core/internal/world"
	"github.com/klauspost/compress/zstd"
)

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// EncodeAll и DecodeAll безопасны для параллельного вызова
func initCodec() {
	encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if codecErr != nil {
		return
	}
	decoder, codecErr = zstd.NewReader(nil)
}

// EncodeSnapshot сериализует снимок в JSON и сжимает zstd
func EncodeSnapshot(snap *world.Snapshot) ([]byte, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", codecErr)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("сериализация снимка: %w", err)
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeSnapshot обратная операция к EncodeSnapshot
func DecodeSnapshot(data []byte) (*world.Snapshot, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", codecErr)
	}

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("распаковка снимка: %w", err)
	}

	var snap world.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("разбор снимка: %w", err)
	}
	return &snap, nil
}
