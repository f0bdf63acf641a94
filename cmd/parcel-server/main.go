// Command parcel-server runs the parcel file-storage server: an acceptor
// loop over a fixed worker pool, each worker owning one client
// conversation end-to-end (original_source/src/server_tcp.c).
package main

import (
	"fmt"
	"os"
	"time"

	"net/http"
	"net/http/pprof"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/pg9182/parcel/pkg/parcelconf"
	"github.com/pg9182/parcel/pkg/server"
)

var opt struct {
	Help bool
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	cfg := parcelconf.ServerConfig{
		Port:        parcelconf.DefaultPort,
		ThreadCount: parcelconf.DefaultThreadCount,
		Seed:        uint32(time.Now().Unix()),
		Dir:         ".",
	}
	rest := extractServerFlags(&cfg, os.Args[1:])
	pflag.CommandLine.Parse(rest)

	if pflag.NArg() > 1 || opt.Help {
		fmt.Printf("usage: %s [-p<port>] [-c<thread_count>] [-s<seed>] [env_file]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(2)
		}
		os.Exit(0)
	}

	var envFile string
	if pflag.NArg() == 1 {
		envFile = pflag.Arg(0)
	}
	if err := cfg.OverlayEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if cfg.DebugAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
		go func() {
			log.Warn().Str("addr", cfg.DebugAddr).Msg("running insecure debug server")
			if err := http.ListenAndServe(cfg.DebugAddr, mux); err != nil {
				log.Warn().Err(err).Msg("debug server failed")
			}
		}()
	}

	srv, err := server.New(server.Config{
		Port:        cfg.Port,
		ThreadCount: cfg.ThreadCount,
		Seed:        cfg.Seed,
		Dir:         cfg.Dir,
		Log:         log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
