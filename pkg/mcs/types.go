package mcs

// Tag identifies the message kind of a frame
type Tag int8

// Frame tags
const (
	TagHeartbeatPing     Tag = 0
	TagHeartbeatAck      Tag = 1
	TagLoginRequest      Tag = 2
	TagLoginResponse     Tag = 3
	TagClose             Tag = 4
	TagIqStanza          Tag = 7
	TagDataMessageStanza Tag = 8
)

// Protocol constants
const (
	// Version byte exchanged by both sides before the first frame
	Version byte = 41

	// AuthServiceAndroidID authenticates the login with a check-in identity
	AuthServiceAndroidID int32 = 2
)

// Message is one decoded frame body. The set of implementations is closed:
// only the seven message kinds in this package satisfy it.
type Message interface {
	Tag() Tag
	marshal() []byte
	unmarshal(b []byte) error
}

// IqType is the kind of an IqStanza
type IqType int32

const (
	IqGet    IqType = 0
	IqSet    IqType = 1
	IqResult IqType = 2
	IqError  IqType = 3
)

// HeartbeatPing is sent by either side to check the connection is alive
type HeartbeatPing struct {
	StreamID             int32
	LastStreamIDReceived int32
	Status               int64
}

// HeartbeatAck answers a HeartbeatPing
type HeartbeatAck struct {
	StreamID             int32
	LastStreamIDReceived int32
	Status               int64
}

// Setting is a name/value pair exchanged at login
type Setting struct {
	Name  string
	Value string
}

// HeartbeatStat reports client heartbeat statistics at login
type HeartbeatStat struct {
	IP         string
	Timeout    bool
	IntervalMS int32
}

// HeartbeatConfig is the server's heartbeat instruction in a login response
type HeartbeatConfig struct {
	UploadStat bool
	IP         string
	IntervalMS int32
}

// ErrorInfo describes a server side error
type ErrorInfo struct {
	Code      int32
	Message   string
	Type      string
	Extension *Extension
}

// Extension carries an opaque typed payload
type Extension struct {
	ID   int32
	Data []byte
}

// LoginRequest authenticates the connection. It is the only message the
// receiver sends.
type LoginRequest struct {
	ID                    string
	Domain                string
	User                  string
	Resource              string
	AuthToken             string
	DeviceID              string
	LastRMQID             int64
	Settings              []Setting
	ReceivedPersistentIDs []string
	AdaptiveHeartbeat     bool
	HeartbeatStat         *HeartbeatStat
	UseRMQ2               bool
	AccountID             int64
	AuthService           int32
	NetworkType           int32
	Status                int64
}

// LoginResponse is the server's answer to a LoginRequest
type LoginResponse struct {
	ID                   string
	JID                  string
	Error                *ErrorInfo
	Settings             []Setting
	StreamID             int32
	LastStreamIDReceived int32
	HeartbeatConfig      *HeartbeatConfig
	ServerTimestamp      int64
}

// Close asks the peer to close the connection
type Close struct{}

// IqStanza is an info/query exchange
type IqStanza struct {
	RMQID                int64
	Type                 IqType
	ID                   string
	From                 string
	To                   string
	Error                *ErrorInfo
	Extension            *Extension
	PersistentID         string
	StreamID             int32
	LastStreamIDReceived int32
	AccountID            int64
	Status               int64
}

// AppData is a key/value header attached to a data message
type AppData struct {
	Key   string
	Value string
}

// DataMessageStanza carries a pushed payload
type DataMessageStanza struct {
	RMQID                int64
	ID                   string
	From                 string
	To                   string
	Category             string
	Token                string
	AppData              []AppData
	FromTrustedServer    bool
	PersistentID         string
	StreamID             int32
	LastStreamIDReceived int32
	Permission           string
	RegID                string
	PkgSignature         string
	ClientID             string
	DeviceUserID         int64
	TTL                  int32
	Sent                 int64
	Queued               int32
	Status               int64
	RawData              []byte
	Delay                int32
	ImmediateAck         bool
}

func (*HeartbeatPing) Tag() Tag     { return TagHeartbeatPing }
func (*HeartbeatAck) Tag() Tag      { return TagHeartbeatAck }
func (*LoginRequest) Tag() Tag      { return TagLoginRequest }
func (*LoginResponse) Tag() Tag     { return TagLoginResponse }
func (*Close) Tag() Tag             { return TagClose }
func (*IqStanza) Tag() Tag          { return TagIqStanza }
func (*DataMessageStanza) Tag() Tag { return TagDataMessageStanza }

// newMessage returns an empty message for tag
func newMessage(tag Tag) (Message, error) {
	switch tag {
	case TagHeartbeatPing:
		return &HeartbeatPing{}, nil
	case TagHeartbeatAck:
		return &HeartbeatAck{}, nil
	case TagLoginRequest:
		return &LoginRequest{}, nil
	case TagLoginResponse:
		return &LoginResponse{}, nil
	case TagClose:
		return &Close{}, nil
	case TagIqStanza:
		return &IqStanza{}, nil
	case TagDataMessageStanza:
		return &DataMessageStanza{}, nil
	default:
		return nil, &UnknownTagError{Tag: tag}
	}
}
