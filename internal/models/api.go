package models

import "time"

// Response statuses.
const (
	StatusOK      = "ok"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Settings actions accepted by POST /api/narrator/settings.
const (
	ActionApplyPreset  = "applyPreset"
	ActionSavePreset   = "savePreset"
	ActionDeletePreset = "deletePreset"
	ActionSetAttribute = "setAttribute"
	ActionAddPhrase    = "addPhrase"
	ActionRemovePhrase = "removePhrase"
	ActionResetDefault = "resetDefault"
)

// HealthResponse answers GET / and GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// EventResponse answers POST /api/event. Narrative is set only for enhanced
// events; Message is set otherwise.
type EventResponse struct {
	Status    string `json:"status"`
	Narrative string `json:"narrative,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SettingsRequest is the body of POST /api/narrator/settings.
// AttributeValue accepts a JSON number or numeric string.
type SettingsRequest struct {
	Action         string `json:"action"`
	PresetName     string `json:"presetName,omitempty"`
	AttributeName  string `json:"attributeName,omitempty"`
	AttributeValue any    `json:"attributeValue,omitempty"`
	Phrase         string `json:"phrase,omitempty"`
	PhraseIndex    *int   `json:"phraseIndex,omitempty"`
}

// SettingsResponse answers both settings endpoints. GET fills PresetName and
// AvailablePresets; POST fills Message and CurrentPreset.
type SettingsResponse struct {
	Status           string         `json:"status"`
	Message          string         `json:"message,omitempty"`
	PresetName       string         `json:"presetName,omitempty"`
	CurrentPreset    string         `json:"currentPreset,omitempty"`
	Attributes       map[string]int `json:"attributes"`
	SignaturePhrases []string       `json:"signaturePhrases"`
	AvailablePresets []string       `json:"availablePresets,omitempty"`
}

// PreviewResponse answers GET /api/narrator/preview.
type PreviewResponse struct {
	Status     string `json:"status"`
	PresetName string `json:"presetName"`
	Preview    string `json:"preview"`
}

// MemoriesResponse answers the short-term and durable history endpoints.
type MemoriesResponse struct {
	Status   string        `json:"status"`
	Memories []MemoryEntry `json:"memories"`
}

// KnowledgeResponse answers GET /api/knowledge/{category}/{name}.
type KnowledgeResponse struct {
	Status   string           `json:"status"`
	Category Category         `json:"category"`
	Name     string           `json:"name"`
	Record   *KnowledgeRecord `json:"record"`
}

// KnowledgeListResponse answers GET /api/knowledge/{category}, keyed by name.
type KnowledgeListResponse struct {
	Status   string                     `json:"status"`
	Category Category                   `json:"category"`
	Records  map[string]KnowledgeRecord `json:"records"`
}

// Narration is broadcast on the websocket feed for every generated narrative.
type Narration struct {
	EventType string    `json:"eventType"`
	Narrative string    `json:"narrative"`
	Timestamp time.Time `json:"timestamp"`
}
