package discord

import "encoding/json"

// Interaction types.
const (
	InteractionPing             = 1
	InteractionCommand          = 2
	InteractionMessageComponent = 3
	InteractionModalSubmit      = 5
)

// Interaction response types.
const (
	ResponsePong           = 1
	ResponseChannelMessage = 4
	ResponseDeferredUpdate = 6
	ResponseUpdateMessage  = 7
	ResponseModal          = 9
)

// Component types.
const (
	ComponentActionRow    = 1
	ComponentButton       = 2
	ComponentStringSelect = 3
	ComponentTextInput    = 4
)

// Button styles.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonSuccess   = 3
	ButtonDanger    = 4
)

// Text input styles.
const (
	TextInputShort     = 1
	TextInputParagraph = 2
)

const EphemeralFlag = 1 << 6

const adminPermissionBit = 0x8

type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
}

// DisplayName prefers the server-facing name over the account handle.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

type Member struct {
	User        *User  `json:"user,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type Channel struct {
	ID string `json:"id"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Emoji       *Emoji `json:"emoji,omitempty"`
	Default     bool   `json:"default,omitempty"`
}

type Emoji struct {
	Name string `json:"name"`
}

// Component is the wire shape shared by action rows, buttons, selects and
// modal text inputs. Discord distinguishes them by Type.
type Component struct {
	Type        int            `json:"type"`
	CustomID    string         `json:"custom_id,omitempty"`
	Label       string         `json:"label,omitempty"`
	Style       int            `json:"style,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Required    *bool          `json:"required,omitempty"`
	Value       string         `json:"value,omitempty"`
	MaxLength   int            `json:"max_length,omitempty"`
	Components  []Component    `json:"components,omitempty"`
}

type Interaction struct {
	ID        string           `json:"id"`
	Type      int              `json:"type"`
	Token     string           `json:"token"`
	GuildID   string           `json:"guild_id,omitempty"`
	ChannelID string           `json:"channel_id,omitempty"`
	Member    *Member          `json:"member,omitempty"`
	User      *User            `json:"user,omitempty"`
	Data      *InteractionData `json:"data,omitempty"`
	Message   *Message         `json:"message,omitempty"`
}

type InteractionData struct {
	Name       string          `json:"name,omitempty"`
	CustomID   string          `json:"custom_id,omitempty"`
	Values     []string        `json:"values,omitempty"`
	Options    []CommandOption `json:"options,omitempty"`
	Components []Component     `json:"components,omitempty"`
}

type CommandOption struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Title      string      `json:"title,omitempty"`
}

type CreateMessageRequest struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

type EditMessageRequest struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

type CreateDMRequest struct {
	RecipientID string `json:"recipient_id"`
}

// Application command types.
const (
	CommandChatInput = 1
	CommandUser      = 2
)

// ApplicationCommand is the registration shape for a slash or context-menu
// command. Context-menu commands carry no description.
type ApplicationCommand struct {
	Name        string                     `json:"name"`
	Type        int                        `json:"type,omitempty"`
	Description string                     `json:"description"`
	Options     []ApplicationCommandOption `json:"options,omitempty"`
}

type ApplicationCommandOption struct {
	Type        int            `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Required    bool           `json:"required,omitempty"`
	Choices     []CommandChoice `json:"choices,omitempty"`
}

type CommandChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Gateway wire types.

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type readyData struct {
	SessionID   string `json:"session_id"`
	User        User   `json:"user"`
	Application struct {
		ID string `json:"id"`
	} `json:"application"`
}

// ReactionEvent is the shared shape of MESSAGE_REACTION_ADD and
// MESSAGE_REACTION_REMOVE dispatches.
type ReactionEvent struct {
	UserID    string  `json:"user_id"`
	ChannelID string  `json:"channel_id"`
	MessageID string  `json:"message_id"`
	GuildID   string  `json:"guild_id,omitempty"`
	Member    *Member `json:"member,omitempty"`
	Emoji     Emoji   `json:"emoji"`
}
