package main

import (
	"emporium/cmd/emporium/commands"
	"emporium/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
