package model

// Msg is the request/response frame exchanged with the front end over the
// websocket. Content carries a JSON payload whose shape depends on Type.
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Message types understood by the server.
const (
	MsgEnv      = "env"      // request: SimRequest in Content
	MsgStart    = "start"    // request: run the configured simulation
	MsgStop     = "stop"     // request: interrupt the run
	MsgEnvSet   = "envSet"   // response: environment accepted
	MsgStopped  = "stopped"  // response: stop acknowledged
	MsgSlice    = "slice"    // response: z=0 plane snapshot in Content
	MsgFinished = "finished" // response: run completed
	MsgError    = "error"    // response: reason in Content
)

// SimRequest is the environment a front end submits before starting a run.
// Lengths are millimetres, temperatures kelvin, times seconds.
type SimRequest struct {
	NX int `json:"n_x"`
	NY int `json:"n_y"`
	NZ int `json:"n_z"`

	LX float64 `json:"l_x"`
	LY float64 `json:"l_y"`
	LZ float64 `json:"l_z"`

	Material string  `json:"material"`
	Layout   string  `json:"layout"` // "four-edge" or "left-edge"
	Initial  float64 `json:"initial"`
	Left     float64 `json:"left"`
	Right    float64 `json:"right"`
	Front    float64 `json:"front"`
	Rear     float64 `json:"rear"`

	Policy    string  `json:"policy"` // "fixed-flag" or "edge-index"
	Duration  float64 `json:"duration"`
	Dt        float64 `json:"dt"`
	PushEvery int     `json:"push_every"`
	Workers   int     `json:"workers"`
}
