package models

// EmbedPayload is everything the HelpCrunch loader needs for one page view.
type EmbedPayload struct {
	Organization string    `json:"organization"`
	Init         EmbedInit `json:"init"`
	AutoShow     bool      `json:"auto_show"`
}

// EmbedInit is passed verbatim as the third argument of HelpCrunch('init', ...).
type EmbedInit struct {
	ApplicationID     string     `json:"applicationId"`
	ApplicationSecret string     `json:"applicationSecret"`
	User              *EmbedUser `json:"user,omitempty"`
}

type EmbedUser struct {
	UserID    *int64 `json:"user_id,omitempty"`
	Signature string `json:"signature,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

// EmbedResponse is returned by the JSON embed endpoint.
type EmbedResponse struct {
	Render    bool          `json:"render"`
	Scheme    string        `json:"scheme"`
	LoaderURL string        `json:"loader_url,omitempty"`
	Payload   *EmbedPayload `json:"payload,omitempty"`
}
