package main

import (
	"dhapi/cmd/dhapi/commands"
	"dhapi/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
