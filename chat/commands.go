package chat

import "strings"

// Capability gates which accounts may invoke a given command.
type Capability string

// SendAnnouncement is the capability required to run /ANNOUNCEMENT.
const SendAnnouncement Capability = "SendAnnouncement"

// Command is one entry of the static privileged-command table.
type Command struct {
	Name       string
	Capability Capability
}

var commandTable = map[string]Command{
	"ANNOUNCEMENT": {Name: "ANNOUNCEMENT", Capability: SendAnnouncement},
}

// ParsedCommand is the result of splitting a leading-"/" message into a
// command name and its argument string.
type ParsedCommand struct {
	Command Command
	Arg     string
}

// ParseCommand returns the command and argument for text, iff text begins
// with "/" and names a known command. ok is false for plain chat text, an
// unknown command, or a malformed command line — callers should treat any
// ok=false result as a no-op, never an error to the client.
func ParseCommand(text string) (ParsedCommand, bool) {
	if !strings.HasPrefix(text, "/") {
		return ParsedCommand{}, false
	}
	rest := text[1:]
	name, arg, _ := strings.Cut(rest, " ")
	cmd, ok := commandTable[strings.ToUpper(name)]
	if !ok {
		return ParsedCommand{}, false
	}
	return ParsedCommand{Command: cmd, Arg: arg}, true
}

// HasCapability reports whether capabilities grants the given capability.
func HasCapability(capabilities []Capability, capability Capability) bool {
	for _, c := range capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
