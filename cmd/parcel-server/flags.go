package main

import (
	"strconv"

	"github.com/pg9182/parcel/pkg/parcelconf"
)

// extractServerFlags pulls the original's single-token flags (`-p25565`,
// `-c4`, `-s42`) out of args before pflag ever sees them — pflag has no
// concept of a flag whose value is glued to the option letter without a
// separator, and leaving unrecognized `-p`/`-c`/`-s` tokens for pflag to
// skip would misparse their values as positional arguments. Everything
// not recognized as one of these three is returned unchanged, for pflag
// to parse normally (`--help`/`-h`, and the positional env file).
//
// Mirrors original_source/src/server_tcp.c:parse_arguments, which only
// inspects argv[i][0] == '-' and the lowercased next character.
func extractServerFlags(cfg *parcelconf.ServerConfig, args []string) []string {
	var rest []string
	for _, a := range args {
		if len(a) > 2 && a[0] == '-' && a[1] != '-' {
			switch a[1] {
			case 'p', 'P':
				if n, err := strconv.ParseUint(a[2:], 10, 16); err == nil {
					cfg.Port = uint16(n)
					continue
				}
			case 'c', 'C':
				if n, err := strconv.ParseUint(a[2:], 10, 32); err == nil {
					cfg.ThreadCount = uint32(n)
					continue
				}
			case 's', 'S':
				if n, err := strconv.ParseUint(a[2:], 10, 32); err == nil {
					cfg.Seed = uint32(n)
					continue
				}
			}
		}
		rest = append(rest, a)
	}
	return rest
}
