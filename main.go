package main

import (
	"discord-guardian/bot"
	"discord-guardian/command"
	"discord-guardian/handlers"
)

func main() {
	bot.Run(handlers.Register, command.GetCommandDefinitions())
}
