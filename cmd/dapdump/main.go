// Command dapdump inspects, writes and reads DAP2 data responses.
//
//	dapdump describe survey.yaml --das
//	dapdump encode survey.yaml -o survey.dods --compression gzip
//	dapdump decode survey.yaml survey.dods --compression gzip --format json
//	dapdump decode survey.yaml survey.dods --arrow sst -o sst.arrow
//	dapdump recompress survey.dods --compression gzip --to zstd -o survey.zst.dods
//
// Every persistent flag can also be set in a configuration file passed with
// --config, or through a DAPDUMP_ environment variable such as
// DAPDUMP_COMPRESSION=zstd. Flags win over the environment, which wins
// over the file.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
