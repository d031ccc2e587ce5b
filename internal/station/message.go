package station

import (
	"encoding/json"
	"time"
)

type MsgType string

const (
	StationHello MsgType = "StationHello"
	Ping         MsgType = "Ping"
	Pong         MsgType = "Pong"
	Scan         MsgType = "Scan"
	ScanResult   MsgType = "ScanResult"
	Notice       MsgType = "Notice"
	Ack          MsgType = "Ack"
	Error        MsgType = "Error"
)

const (
	ScanStatusOK          = "ok"
	ScanStatusUnknownCode = "unknown_code"
	ScanStatusInvalidCode = "invalid_code"
	ScanStatusError       = "error"
)

type Message struct {
	Type      MsgType         `json:"type"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type StationHelloPayload struct {
	StationID string `json:"station_id"`
	Label     string `json:"label"`
	Version   string `json:"version"`
}

type ScanPayload struct {
	Code     string `json:"code"`
	Category string `json:"category"`
}

type ScanResultPayload struct {
	Status     string `json:"status"`
	Code       string `json:"code"`
	Category   string `json:"category"`
	ClientID   int64  `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Ordinal    int64  `json:"ordinal,omitempty"`
	Free       bool   `json:"free"`
	UntilFree  int    `json:"until_free"`
	Message    string `json:"message,omitempty"`
}

type NoticePayload struct {
	Text string `json:"text"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
