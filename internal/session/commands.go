package session

// HostCommandKind is one of the host's control commands.
type HostCommandKind string

// Host commands.
const (
	CommandStart            HostCommandKind = "start"
	CommandEndGame          HostCommandKind = "end_game"
	CommandShowResults      HostCommandKind = "show_results"
	CommandEndQuestionEarly HostCommandKind = "end_question_early"
)

// ParseHostCommand maps a wire name onto the closed command set. The
// original client names start_game and show_question_results are accepted
// as aliases.
func ParseHostCommand(raw string) (HostCommandKind, error) {
	switch raw {
	case string(CommandStart), "start_game":
		return CommandStart, nil
	case string(CommandEndGame):
		return CommandEndGame, nil
	case string(CommandShowResults), "show_question_results":
		return CommandShowResults, nil
	case string(CommandEndQuestionEarly):
		return CommandEndQuestionEarly, nil
	default:
		return "", ErrUnknownCommand
	}
}

// Command is the closed set of inbound requests the engine accepts.
type Command interface {
	SessionCode() string
	isCommand()
}

// JoinCommand registers a player while the session is waiting.
type JoinCommand struct {
	Code       string
	PlayerName string
}

// ConnectCommand re-associates a registered player with a live channel.
type ConnectCommand struct {
	Code       string
	PlayerName string
}

// HostAttachCommand marks the host connected.
type HostAttachCommand struct {
	Code string
}

// HostCommand carries a host control command.
type HostCommand struct {
	Code string
	Kind HostCommandKind
}

// SubmitAnswerCommand submits a player's answer for the open question.
type SubmitAnswerCommand struct {
	Code           string
	PlayerName     string
	Option         int
	ClientTimeLeft float64
}

// DisconnectCommand is issued by the transport when a channel closes.
type DisconnectCommand struct {
	Code     string
	Identity Recipient
}

func (c JoinCommand) SessionCode() string         { return c.Code }
func (c ConnectCommand) SessionCode() string      { return c.Code }
func (c HostAttachCommand) SessionCode() string   { return c.Code }
func (c HostCommand) SessionCode() string         { return c.Code }
func (c SubmitAnswerCommand) SessionCode() string { return c.Code }
func (c DisconnectCommand) SessionCode() string   { return c.Code }

func (JoinCommand) isCommand()         {}
func (ConnectCommand) isCommand()      {}
func (HostAttachCommand) isCommand()   {}
func (HostCommand) isCommand()         {}
func (SubmitAnswerCommand) isCommand() {}
func (DisconnectCommand) isCommand()   {}
