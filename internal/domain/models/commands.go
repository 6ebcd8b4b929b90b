package models

import "strings"

// CommandType enumerates the chat commands understood by the hatchery bot.
type CommandType string

const (
	CommandWeight   CommandType = "weight"
	CommandStatus   CommandType = "status"
	CommandPinHoles CommandType = "pinholes"
	CommandDigest   CommandType = "digest"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The head token is
// case-insensitive; arguments keep their case since egg IDs are opaque.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.TrimPrefix(strings.ToLower(tokens[0]), "/")
	switch CommandType(head) {
	case CommandWeight, CommandStatus, CommandPinHoles, CommandDigest, CommandHelp:
		cmd.Type = CommandType(head)
	case "w":
		cmd.Type = CommandWeight
	case "holes", "pin":
		cmd.Type = CommandPinHoles
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}
	return cmd
}
