// Package main provides the salesdesk CLI: the record store commands, the
// scraping job commands and the JSON API server.
package main

import "github.com/mesh-intelligence/salesdesk/internal/cli"

func main() {
	cli.Execute()
}
