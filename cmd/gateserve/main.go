// Command gateserve runs a long-lived HTTP service holding one gate per
// agent session, so a caller in any language can drive handle_tool_call
// and handle_tool_result over the network instead of linking this module
// directly.
package main

import (
	"log"
	"os"

	"github.com/petrigate/petrigate/gate/httpapi"
	"github.com/petrigate/petrigate/gate/session"
	"github.com/petrigate/petrigate/pkg/config"
)

func main() {
	config.LoadEnv()

	store := session.NewStore(config.SessionTTL, config.ShadowModeDefault)
	defer store.Close()

	host := os.Getenv("GATE_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("GATE_PORT")
	if port == "" {
		port = "8090"
	}

	srv := httpapi.NewServer(store)
	if err := srv.Start(host + ":" + port); err != nil {
		log.Fatalf("gateserve: %v", err)
	}
}
