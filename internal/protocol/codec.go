package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/command.schema.json
var commandSchemaJSON []byte

var (
	commandSchemaOnce sync.Once
	commandSchema     *gojsonschema.Schema
	commandSchemaErr  error
)

func loadCommandSchema() (*gojsonschema.Schema, error) {
	commandSchemaOnce.Do(func() {
		commandSchema, commandSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(commandSchemaJSON))
	})

	return commandSchema, commandSchemaErr
}

type envelope struct {
	Type string `json:"type"`
}

// DecodeCommand validates an inbound frame against the command schema and
// decodes it into one of HandshakeAck, RefreshInstances or SetTone.
func DecodeCommand(data []byte) (Command, error) {
	schema, err := loadCommandSchema()
	if err != nil {
		return nil, fmt.Errorf("compile command schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, invalidCommand("malformed json", err)
	}
	if !result.Valid() {
		return nil, invalidCommand(describe(result.Errors()), nil)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, invalidCommand("malformed json", err)
	}

	switch CommandType(env.Type) {
	case CommandHandshakeAck:
		var cmd HandshakeAck
		if err := decodeFields(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandRefreshInstances:
		var cmd RefreshInstances
		if err := decodeFields(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case CommandSetTone:
		var cmd SetTone
		if err := decodeFields(data, &cmd); err != nil {
			return nil, err
		}
		if cmd.Params == nil {
			cmd.Params = []Param{}
		}
		return cmd, nil
	default:
		return nil, invalidCommand(fmt.Sprintf("unknown command type %q", env.Type), nil)
	}
}

// decodeFields decodes a schema-checked frame into dst. The type tag is
// ignored by dst.
func decodeFields(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		return invalidCommand("decode fields", err)
	}

	return nil
}

func describe(errs []gojsonschema.ResultError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.String())
	}

	return strings.Join(parts, "; ")
}

// EncodeMessage serializes an outbound message with its type tag.
func EncodeMessage(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case Handshake:
		if m.Instances == nil {
			m.Instances = []Instance{}
		}
		if m.ValidationReport == nil {
			m.ValidationReport = map[string]string{}
		}
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			Handshake
		}{Type: MessageHandshake, Handshake: m})
	case ProjectChanged:
		return json.Marshal(envelope{Type: string(MessageProjectChanged)})
	case Ack:
		if m.AppliedParams == nil {
			m.AppliedParams = []AppliedParam{}
		}
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			Ack
		}{Type: MessageAck, Ack: m})
	case ErrorMessage:
		return json.Marshal(struct {
			Type MessageType `json:"type"`
			ErrorMessage
		}{Type: MessageError, ErrorMessage: m})
	default:
		return nil, fmt.Errorf("encode message: unsupported type %T", msg)
	}
}

// EncodeCommand serializes a client command. Used by the send command and
// tests.
func EncodeCommand(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case HandshakeAck:
		return json.Marshal(struct {
			Type CommandType `json:"type"`
			HandshakeAck
		}{Type: CommandHandshakeAck, HandshakeAck: c})
	case RefreshInstances:
		return json.Marshal(struct {
			Type CommandType `json:"type"`
			RefreshInstances
		}{Type: CommandRefreshInstances, RefreshInstances: c})
	case SetTone:
		if c.Params == nil {
			c.Params = []Param{}
		}
		return json.Marshal(struct {
			Type CommandType `json:"type"`
			SetTone
		}{Type: CommandSetTone, SetTone: c})
	default:
		return nil, fmt.Errorf("encode command: unsupported type %T", cmd)
	}
}

// DecodeMessage decodes a server frame on the client side.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch MessageType(env.Type) {
	case MessageHandshake:
		var msg Handshake
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode handshake: %w", err)
		}
		return msg, nil
	case MessageProjectChanged:
		return ProjectChanged{}, nil
	case MessageAck:
		var msg Ack
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode ack: %w", err)
		}
		return msg, nil
	case MessageError:
		var msg ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("decode message: unknown type %q", env.Type)
	}
}
