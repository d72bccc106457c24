package transfer

// PostPayload mirrors the wire shape of a publish payload: single posts carry
// text, threads carry items.
type PostPayload struct {
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

type ScheduleCreation struct {
	DraftID      string      `json:"draft_id,omitempty"`
	ContentType  string      `json:"content_type"`
	Payload      *PostPayload `json:"payload"`
	ScheduledFor string      `json:"scheduled_for"`
}

type PublishRequest struct {
	ContentType string       `json:"content_type"`
	Payload     *PostPayload `json:"payload"`
}

type CredentialsUpdate struct {
	Handle       string `json:"handle"`
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}
