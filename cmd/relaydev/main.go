// relaydev is a minimal in-memory relay for local development. It speaks
// just enough of the wire protocol to exercise the client: REQ, CLOSE and
// EVENT inbound; EVENT, OK, EOSE and NOTICE outbound; optional AUTH
// challenges with -auth.
package main

import (
	"flag"
	"log"
	"net/http"

	"lifeline/internal/relaydev"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	auth := flag.Bool("auth", false, "demand auth on connect")
	flag.Parse()

	srv := relaydev.NewServer(relaydev.Options{RequireAuth: *auth})
	log.Printf("relaydev: listening on ws://%s", *addr)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		log.Fatal(err)
	}
}
