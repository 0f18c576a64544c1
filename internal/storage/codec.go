package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"chronos/internal/core/model"
)

// Persistence keys for the three collections.
const (
	KeyTimers  = "chronos_timers"
	KeyStacks  = "chronos_stacks"
	KeyPresets = "chronos_presets"
)

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	snapshotEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	snapshotDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR decoder mode: %v", err))
	}
}

// EncodeTimers serializes a timer collection.
func EncodeTimers(timers []model.Timer) ([]byte, error) {
	return encode(timers)
}

// DecodeTimers parses a timer collection.
func DecodeTimers(blob []byte) ([]model.Timer, error) {
	var timers []model.Timer
	if err := decode(blob, &timers); err != nil {
		return nil, err
	}
	return timers, nil
}

// EncodeStacks serializes a stack collection.
func EncodeStacks(stacks []model.TimerStack) ([]byte, error) {
	return encode(stacks)
}

// DecodeStacks parses a stack collection.
func DecodeStacks(blob []byte) ([]model.TimerStack, error) {
	var stacks []model.TimerStack
	if err := decode(blob, &stacks); err != nil {
		return nil, err
	}
	return stacks, nil
}

// EncodePresets serializes custom presets.
func EncodePresets(presets []model.Preset) ([]byte, error) {
	return encode(presets)
}

// DecodePresets parses custom presets.
func DecodePresets(blob []byte) ([]model.Preset, error) {
	var presets []model.Preset
	if err := decode(blob, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func encode(value any) ([]byte, error) {
	blob, err := snapshotEncMode.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return blob, nil
}

func decode(blob []byte, target any) error {
	if len(blob) == 0 {
		return fmt.Errorf("decode snapshot: %w", ErrEmptyBlob)
	}
	if err := snapshotDecMode.Unmarshal(blob, target); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}
