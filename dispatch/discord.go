package dispatch

// Discord webhook payload, fixed by the external format.

// EmbedFooter 通知底部栏。
type EmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url"`
}

// EmbedAuthor 通知作者栏。
type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

// Embed 单条通知卡片。
type Embed struct {
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Footer      EmbedFooter `json:"footer"`
	Author      EmbedAuthor `json:"author"`
}

// WebhookPayload Discord webhook 请求体。
type WebhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

const (
	embedColor     = 0xBD983A
	footerText     = "universalis.app"
	footerIconURL  = "https://universalis.app/favicon.png"
	authorName     = "Universalis Alert!"
	authorIconURL  = "https://cdn.discordapp.com/emojis/474543539771015168.png"
)
