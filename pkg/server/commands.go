package server

import (
	"github.com/VictoriaMetrics/metrics"

	"github.com/pg9182/parcel/pkg/filestore"
	"github.com/pg9182/parcel/pkg/metricsx"
	"github.com/pg9182/parcel/pkg/netbuf"
	"github.com/pg9182/parcel/pkg/parcelnet"
)

// request carries whatever a command's payload decoded to, beyond its
// tag; fields are populated only for the commands that use them.
type request struct {
	name    string
	content []byte
}

// decodeRequest reads the leading command tag and, for NAME/SEND/PULL,
// the request-specific fields that follow it.
func decodeRequest(payload []byte) (parcelnet.Command, request, bool) {
	buf := netbuf.NewFromBytes(payload)
	r := netbuf.Acquire(buf, netbuf.ModeRead)

	tag, ok := r.ReadU32()
	if !ok {
		return 0, request{}, false
	}
	cmd := parcelnet.Command(tag)

	switch cmd {
	case parcelnet.CmdName:
		name, ok := parcelnet.DecodeNameRequest(r)
		if !ok {
			return 0, request{}, false
		}
		return cmd, request{name: name}, true
	case parcelnet.CmdPull:
		name, ok := parcelnet.DecodePullRequest(r)
		if !ok {
			return 0, request{}, false
		}
		return cmd, request{name: name}, true
	case parcelnet.CmdSend:
		name, content, ok := parcelnet.DecodeSendRequest(r)
		if !ok {
			return 0, request{}, false
		}
		return cmd, request{name: name, content: content}, true
	default:
		return cmd, request{}, true
	}
}

// handleSend implements SEND (spec.md §4.7): append the submitted record
// to the active user's store. Unlike the original's server_send, a
// missing assigned path replies BAD_NAME and returns immediately instead
// of falling through to open a null path (spec.md §9 item 2; REDESIGN
// FLAG).
func (w *Worker) handleSend(codec *parcelnet.Codec, req request, path string, hasPath bool) {
	if !hasPath {
		w.replyStatus(codec, parcelnet.CmdBadName)
		return
	}
	if err := w.store.Append(path, req.name, req.content); err != nil {
		w.log.Debug().Err(err).Str("name", req.name).Msg("send: append failed")
		w.replyStatus(codec, parcelnet.CmdBad)
		return
	}
	w.log.Info().Str("name", req.name).Msg("send")
	w.replyStatus(codec, parcelnet.CmdOK)
}

// handleList implements LIST (spec.md §4.7).
func (w *Worker) handleList(codec *parcelnet.Codec, path string, hasPath bool) {
	if !hasPath {
		w.replyStatus(codec, parcelnet.CmdBadName)
		return
	}
	entries, err := w.store.List(path)
	if err != nil {
		w.log.Debug().Err(err).Msg("list: failed")
		w.replyStatus(codec, parcelnet.CmdBad)
		return
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	if err := codec.Send(parcelnet.EncodeListOK(names)); err != nil {
		w.log.Debug().Err(err).Msg("list: send failed")
	}
}

// handlePull implements PULL (spec.md §4.7).
func (w *Worker) handlePull(codec *parcelnet.Codec, req request, path string, hasPath bool) {
	if !hasPath {
		w.replyStatus(codec, parcelnet.CmdBadName)
		return
	}
	content, err := w.store.Pull(path, req.name)
	if err != nil {
		if err != filestore.ErrNotFound {
			w.log.Debug().Err(err).Str("query", req.name).Msg("pull: failed")
		}
		w.replyStatus(codec, parcelnet.CmdBad)
		return
	}
	w.log.Info().Str("query", req.name).Msg("pull")
	if err := codec.Send(parcelnet.EncodePullOK(content)); err != nil {
		w.log.Debug().Err(err).Msg("pull: send failed")
	}
}

// handleName implements NAME (spec.md §4.6, §4.7): look up or register
// the display name, snapshot the registry, and reply OK. An empty name
// replies BAD_NAME and returns, the same short-circuit fix applied to
// SEND/LIST/PULL.
func (w *Worker) handleName(codec *parcelnet.Codec, req request) (path string, hasPath bool) {
	if req.name == "" {
		w.replyStatus(codec, parcelnet.CmdBadName)
		return "", false
	}

	path, ok := w.registry.Lookup(req.name)
	if !ok {
		path = w.registry.Insert(w.rng, req.name)
		w.log.Info().Str("name", req.name).Str("path", path).Msg("new user")
	} else {
		w.log.Info().Str("name", req.name).Str("path", path).Msg("returning user")
	}
	metrics.GetOrCreateGauge(metricsx.WithLabels("parcel_registry_entries"), nil).Set(float64(w.registry.Count()))

	if w.snapshotPath != "" {
		if err := w.registry.Snapshot(w.snapshotPath); err != nil {
			w.log.Warn().Err(err).Msg("name: snapshot failed")
		}
	}

	w.replyStatus(codec, parcelnet.CmdOK)
	return path, true
}

func (w *Worker) replyStatus(codec *parcelnet.Codec, status parcelnet.Command) {
	if err := codec.Send(parcelnet.EncodeStatus(status)); err != nil {
		w.log.Debug().Err(err).Str("status", status.String()).Msg("reply failed")
	}
}
