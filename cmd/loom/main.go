// Command loom is the reference CLI over the engine: list registered
// agents, run one session, attach to a served session, or serve the
// HTTP/WebSocket attach surface.
package main

import "github.com/loomrun/loom/internal/cli"

func main() {
	cli.Execute()
}
