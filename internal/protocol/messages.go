package protocol

import "github.com/bnema/tonebridge/internal/domain"

type CommandType string

const (
	CommandHandshakeAck     CommandType = "handshake_ack"
	CommandRefreshInstances CommandType = "refresh_instances"
	CommandSetTone          CommandType = "set_tone"
)

// Command is an inbound client frame. Every command carries the session token
// it was issued under.
type Command interface {
	CommandType() CommandType
	Token() string
}

type HandshakeAck struct {
	SessionToken string `json:"session_token"`
}

type RefreshInstances struct {
	SessionToken string `json:"session_token"`
}

type Param struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

type SetTone struct {
	SessionToken string           `json:"session_token"`
	CommandID    string           `json:"command_id"`
	TargetFXGUID string           `json:"target_fx_guid"`
	Mode         domain.MergeMode `json:"mode"`
	Params       []Param          `json:"params"`
}

func (HandshakeAck) CommandType() CommandType     { return CommandHandshakeAck }
func (RefreshInstances) CommandType() CommandType { return CommandRefreshInstances }
func (SetTone) CommandType() CommandType          { return CommandSetTone }

func (c HandshakeAck) Token() string     { return c.SessionToken }
func (c RefreshInstances) Token() string { return c.SessionToken }
func (c SetTone) Token() string          { return c.SessionToken }

// Changes converts the wire params into domain changes, preserving order.
func (c SetTone) Changes() []domain.ParamChange {
	out := make([]domain.ParamChange, 0, len(c.Params))
	for _, p := range c.Params {
		out = append(out, domain.ParamChange{Index: p.Index, Value: p.Value})
	}

	return out
}

type MessageType string

const (
	MessageHandshake      MessageType = "handshake"
	MessageProjectChanged MessageType = "project_changed"
	MessageAck            MessageType = "ack"
	MessageError          MessageType = "error"
)

// Message is an outbound server frame.
type Message interface {
	MessageType() MessageType
}

type Instance struct {
	TrackGUID        string            `json:"track_guid"`
	TrackName        string            `json:"track_name"`
	FXGUID           string            `json:"fx_guid"`
	FXName           string            `json:"fx_name"`
	LastKnownFXIndex int               `json:"last_known_fx_index"`
	Confidence       domain.Confidence `json:"confidence"`
}

type ParamFormat struct {
	Min string `json:"min"`
	Mid string `json:"mid"`
	Max string `json:"max"`
}

type ParamEnumOption struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type Handshake struct {
	SessionToken     string                    `json:"session_token"`
	Instances        []Instance                `json:"instances"`
	ValidationReport map[string]string         `json:"validation_report"`
	ParamFormats     map[int]ParamFormat       `json:"param_formats,omitempty"`
	ParamEnums       map[int][]ParamEnumOption `json:"param_enums,omitempty"`
}

type ProjectChanged struct{}

type AppliedParam struct {
	Index     int     `json:"index"`
	HostIndex *int    `json:"host_index,omitempty"`
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Formatted string  `json:"formatted"`
}

type Ack struct {
	CommandID     string         `json:"command_id"`
	AppliedParams []AppliedParam `json:"applied_params"`
}

type ErrorCode string

const (
	CodeUnauthorized   ErrorCode = "unauthorized"
	CodeBusy           ErrorCode = "busy"
	CodeTargetNotFound ErrorCode = "target_not_found"
	CodeInvalidCommand ErrorCode = "invalid_command"
	CodeInvalidValue   ErrorCode = "invalid_value"
	CodeNotReady       ErrorCode = "not_ready"
	CodeSuperseded     ErrorCode = "superseded"
	CodeInternalError  ErrorCode = "internal_error"
)

type ErrorMessage struct {
	Msg  string    `json:"msg"`
	Code ErrorCode `json:"code"`
}

func (Handshake) MessageType() MessageType      { return MessageHandshake }
func (ProjectChanged) MessageType() MessageType { return MessageProjectChanged }
func (Ack) MessageType() MessageType            { return MessageAck }
func (ErrorMessage) MessageType() MessageType   { return MessageError }

// NewHandshake builds the wire handshake from a scan result.
func NewHandshake(token string, scan domain.ScanResult) Handshake {
	instances := make([]Instance, 0, len(scan.Instances))
	for _, inst := range scan.Instances {
		instances = append(instances, Instance{
			TrackGUID:        string(inst.ContainerID),
			TrackName:        inst.ContainerName,
			FXGUID:           string(inst.ID),
			FXName:           inst.Name,
			LastKnownFXIndex: inst.Position,
			Confidence:       inst.Confidence,
		})
	}

	report := make(map[string]string, len(scan.Report))
	for role, line := range scan.Report {
		report[role] = line
	}

	hs := Handshake{
		SessionToken:     token,
		Instances:        instances,
		ValidationReport: report,
	}
	if len(scan.Formats) > 0 {
		hs.ParamFormats = make(map[int]ParamFormat, len(scan.Formats))
		for idx, f := range scan.Formats {
			hs.ParamFormats[idx] = ParamFormat{Min: f.Min, Mid: f.Mid, Max: f.Max}
		}
	}
	if len(scan.Enums) > 0 {
		hs.ParamEnums = make(map[int][]ParamEnumOption, len(scan.Enums))
		for idx, options := range scan.Enums {
			converted := make([]ParamEnumOption, 0, len(options))
			for _, o := range options {
				converted = append(converted, ParamEnumOption{Value: o.Value, Label: o.Label})
			}
			hs.ParamEnums[idx] = converted
		}
	}

	return hs
}

// NewAck builds an ack from the engine's applied list.
func NewAck(commandID string, applied []domain.AppliedParam) Ack {
	params := make([]AppliedParam, 0, len(applied))
	for _, a := range applied {
		p := AppliedParam{
			Index:     a.Index,
			Requested: a.Requested,
			Applied:   a.Applied,
			Formatted: a.Formatted,
		}
		if a.HostIndex != a.Index {
			hostIndex := a.HostIndex
			p.HostIndex = &hostIndex
		}
		params = append(params, p)
	}

	return Ack{CommandID: commandID, AppliedParams: params}
}

func NewError(code ErrorCode, msg string) ErrorMessage {
	return ErrorMessage{Msg: msg, Code: code}
}
