package hooks

import (
	"github.com/mcncl/jsonext/internal/models"
)

// ErrorHook maps Error(...) to *models.ErrorValue. Any other Go error is
// encoded as Error("<message>").
type ErrorHook struct{}

// Name implements Hook.
func (h *ErrorHook) Name() string { return "Error" }

// Decode implements Decoder.
func (h *ErrorHook) Decode(tag string, args []any) (any, bool, error) {
	if tag != "Error" {
		return nil, false, nil
	}
	return models.NewErrorValue(args...), true, nil
}

// Encode implements Encoder.
func (h *ErrorHook) Encode(v any) (string, []any, bool, error) {
	switch e := v.(type) {
	case *models.ErrorValue:
		if e == nil {
			return "", nil, false, nil
		}
		return "Error", e.Args, true, nil
	case error:
		return "Error", []any{e.Error()}, true, nil
	}
	return "", nil, false, nil
}

// PassthroughHook keeps every constructor as a models.StructValue. Placed
// last in a chain it lets unknown tags survive a decode/encode cycle.
type PassthroughHook struct{}

// Name implements Hook.
func (h *PassthroughHook) Name() string { return "Passthrough" }

// Decode implements Decoder.
func (h *PassthroughHook) Decode(tag string, args []any) (any, bool, error) {
	return models.StructValue{Tag: tag, Args: args}, true, nil
}

// Encode implements Encoder.
func (h *PassthroughHook) Encode(v any) (string, []any, bool, error) {
	switch s := v.(type) {
	case models.StructValue:
		return s.Tag, s.Args, true, nil
	case *models.StructValue:
		if s == nil {
			return "", nil, false, nil
		}
		return s.Tag, s.Args, true, nil
	}
	return "", nil, false, nil
}
