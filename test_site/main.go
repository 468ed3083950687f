// Command test_site writes a small site for trying minihttpd by hand.
package main

import (
	"flag"
	"log"
)

var (
	dir   = flag.String("dir", "public", "directory to create")
	size  = flag.String("size", "1m", "size of the generated blob (k, m, g suffixes)")
	users = flag.String("user", "alice:wonder", "credential line written to login.txt")
)

func main() {
	flag.Parse()
	sz, err := sizeToInt(*size)
	if err != nil {
		log.Fatalf("E %v", err)
	}
	if err := writeSite(*dir, sz, *users); err != nil {
		log.Fatalf("E %v", err)
	}
	log.Printf("I wrote %s", *dir)
}
