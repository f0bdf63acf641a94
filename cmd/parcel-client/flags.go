package main

import (
	"strconv"

	"github.com/pg9182/parcel/pkg/parcelconf"
)

// extractClientFlags pulls the original's single-token flags (`-p25565`,
// `-a127.0.0.1`, `-s42`) out of args before pflag ever sees them, for the
// same reason cmd/parcel-server does: pflag has no concept of a flag
// whose value is glued to the option letter without a separator.
//
// Mirrors original_source/src/client_tcp.c:parse_arguments.
func extractClientFlags(cfg *parcelconf.ClientConfig, args []string) []string {
	var rest []string
	for _, a := range args {
		if len(a) > 2 && a[0] == '-' && a[1] != '-' {
			switch a[1] {
			case 'p', 'P':
				if n, err := strconv.ParseUint(a[2:], 10, 16); err == nil {
					cfg.Port = uint16(n)
					continue
				}
			case 'a', 'A':
				cfg.Address = a[2:]
				continue
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
