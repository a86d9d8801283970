package command

// helpLines is the fixed command reference. The command strings are a
// compatibility contract with existing callers and must not change.
var helpLines = []string{
	"Available commands:",
	"status - check the indicator state",
	"status verbose - check the indicator state, echoing each raw sample",
	"reboot - power cycle the device via the relay",
	"reset - reset this controller",
	"settings - show the current settings",
	"ping - reply with pong",
	"version - show the firmware version",
	"help - show this help",
}
