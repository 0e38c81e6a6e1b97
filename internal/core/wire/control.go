package wire

import (
	"encoding/json"

	"mirrornet/internal/core/domain"
)

// Control message type tags on the wire.
const (
	TypeStreamState   = "stream_state"
	TypeQualityChange = "quality_change"
	TypeDeviceInfo    = "device_info"
)

// ControlMessage is the compact JSON record for non-image traffic. Enabled
// carries the strings "true"/"false" for stream_state, Mode the tier name
// for quality_change; the device fields ride along for device_info.
type ControlMessage struct {
	Type          string `json:"type"`
	Enabled       string `json:"enabled,omitempty"`
	Mode          string `json:"mode,omitempty"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Model         string `json:"model,omitempty"`
	SystemVersion string `json:"systemVersion,omitempty"`
}

// StreamState builds the stream-enable toggle message.
func StreamState(enabled bool) ControlMessage {
	v := "false"
	if enabled {
		v = "true"
	}
	return ControlMessage{Type: TypeStreamState, Enabled: v}
}

// QualityChange builds the quality-change notification.
func QualityChange(tier domain.QualityTier) ControlMessage {
	return ControlMessage{Type: TypeQualityChange, Mode: string(tier)}
}

// DeviceAnnounce builds the periodic device-info broadcast.
func DeviceAnnounce(info domain.DeviceInfo) ControlMessage {
	return ControlMessage{
		Type:          TypeDeviceInfo,
		ID:            info.ID,
		Name:          info.Name,
		Model:         info.Model,
		SystemVersion: info.SystemVersion,
	}
}

// StreamEnabled interprets the Enabled field of a stream_state message.
func (m ControlMessage) StreamEnabled() bool {
	return m.Enabled == "true"
}

// Tier interprets the Mode field of a quality_change message.
func (m ControlMessage) Tier() domain.QualityTier {
	return domain.QualityTier(m.Mode)
}

// DeviceInfo extracts the broadcast record of a device_info message.
func (m ControlMessage) DeviceInfo() domain.DeviceInfo {
	return domain.DeviceInfo{
		ID:            m.ID,
		Name:          m.Name,
		Model:         m.Model,
		SystemVersion: m.SystemVersion,
	}
}

// EncodeControl serializes a control message for the wire.
func EncodeControl(m ControlMessage) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeControl attempts to parse data as a control message. ok is false
// when data is not a JSON record or its type field is not recognized.
func DecodeControl(data []byte) (ControlMessage, bool) {
	var m ControlMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ControlMessage{}, false
	}
	switch m.Type {
	case TypeStreamState, TypeQualityChange, TypeDeviceInfo:
		return m, true
	default:
		return ControlMessage{}, false
	}
}
