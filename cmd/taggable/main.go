// Command taggable is the admin CLI: it prunes unused tags and runs migrations.
package main

import "github.com/pkordes/taggable/internal/cli"

func main() {
	cli.Execute()
}
