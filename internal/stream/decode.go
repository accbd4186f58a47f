package stream

import (
	"errors"
	"fmt"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errEmptyPayload = errors.New("empty payload")

// Message is a decoded stream frame. Exactly one of Log, Workflow or
// ResolvedID is meaningful, selected by Kind; Unknown marks kinds the
// dashboard does not handle.
type Message struct {
	Kind       string
	Log        *models.LogEntry
	Workflow   *models.WorkflowRecord
	ResolvedID string
	Unknown    bool
}

// Decode parses one frame of the form {"type": ..., "data": ...}.
// Unknown kinds are not an error; a malformed envelope or payload is.
func Decode(raw []byte) (Message, error) {
	var env sd.StreamMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := Message{Kind: env.Type}
	switch env.Type {
	case sd.KindLog:
		var e models.LogEntry
		if err := decodePayload(env.Data, &e); err != nil {
			return Message{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		msg.Log = &e
	case sd.KindTriage:
		var w models.WorkflowRecord
		if err := decodePayload(env.Data, &w); err != nil {
			return Message{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		msg.Workflow = &w
	case sd.KindSafetyResolved:
		var p models.SafetyResolvedPayload
		if err := decodePayload(env.Data, &p); err != nil {
			return Message{}, fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		msg.ResolvedID = p.ID
	default:
		msg.Unknown = true
	}
	return msg, nil
}

func decodePayload(data []byte, dst any) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(data, dst)
}
