package sfstream

import "strings"

// Reserved Bayeux meta channels.
const (
	MetaHandshake   = "/meta/handshake"
	MetaConnect     = "/meta/connect"
	MetaSubscribe   = "/meta/subscribe"
	MetaUnsubscribe = "/meta/unsubscribe"
	MetaDisconnect  = "/meta/disconnect"

	metaPrefix = "/meta/"
)

// UnknownClientError is the meta-channel error the server sends when the
// handshake session has been invalidated and a new handshake is required.
const UnknownClientError = "403::Unknown client"

// ServerUnavailablePrefix marks a subscribe failure reason as transient
// server congestion. Failure reasons starting with this prefix are retryable.
const ServerUnavailablePrefix = "SERVER_UNAVAILABLE"

// Message is a single Bayeux protocol frame: either a control frame on one of
// the /meta/ channels (handshake, connect and subscribe responses) or an
// application event on a data channel.
type Message struct {
	Channel    string  `json:"channel"`
	ClientID   string  `json:"clientId,omitempty"`
	Successful bool    `json:"successful,omitempty"`
	Error      string  `json:"error,omitempty"`
	Advice     *Advice `json:"advice,omitempty"`
	Data       *Data   `json:"data,omitempty"`
	Ext        Ext     `json:"ext,omitempty"`
}

// Advice carries server-provided connection tuning hints, delivered on
// /meta/connect responses. Timeout and Interval are in milliseconds.
type Advice struct {
	Reconnect string `json:"reconnect,omitempty"`
	Timeout   int64  `json:"timeout,omitempty"`
	Interval  int64  `json:"interval,omitempty"`
}

// Data is the payload of an application event frame.
type Data struct {
	Event   *Event         `json:"event,omitempty"`
	SObject map[string]any `json:"sobject,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event identifies an application event's position in its channel history.
type Event struct {
	ReplayID    int64  `json:"replayId"`
	CreatedDate string `json:"createdDate"`
	Type        string `json:"type,omitempty"`
}

// Ext is the vendor-extension map attached to a frame.
type Ext map[string]any

// IsMeta reports whether the frame belongs to a reserved protocol channel.
func (m Message) IsMeta() bool {
	return strings.HasPrefix(m.Channel, metaPrefix)
}

// FailureReason extracts the vendor failure reason from a subscribe result,
// reachable at ext.sfdc.failureReason. Returns "" when absent.
func (m Message) FailureReason() string {
	sfdc, ok := m.Ext["sfdc"].(map[string]any)
	if !ok {
		return ""
	}
	reason, _ := sfdc["failureReason"].(string)
	return reason
}

// Payload is a protocol request body under construction. Layers may augment
// a payload produced by an inner layer before it is sent.
type Payload map[string]any

// Ext returns the payload's extension map, creating it when missing so layers
// can merge their keys without clobbering what inner layers produced.
func (p Payload) Ext() map[string]any {
	ext, ok := p["ext"].(map[string]any)
	if !ok {
		ext = make(map[string]any)
		p["ext"] = ext
	}
	return ext
}
