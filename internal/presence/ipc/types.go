package ipc

// Activity is the rich presence payload of SET_ACTIVITY
type Activity struct {
	State      string      `json:"state,omitempty"`
	Details    string      `json:"details,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// Timestamps holds unix times in milliseconds
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

// Assets references images uploaded to the Discord application
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
}

// Button is a link shown under the activity
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string       `json:"cmd"`
	Args  activityArgs `json:"args"`
	Nonce string       `json:"nonce"`
}

type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

// reply covers dispatches, command responses and close frames.
// Close frames carry code and message at the top level.
type reply struct {
	Cmd     string     `json:"cmd"`
	Evt     string     `json:"evt"`
	Nonce   string     `json:"nonce"`
	Data    *errorData `json:"data"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
