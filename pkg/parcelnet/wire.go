// Package parcelnet implements the parcel application-layer protocol: the
// public-key handshake (C4) and the encrypt-on-send/decrypt-on-recv
// message codec (C5) layered over pkg/framesock, plus encode/decode of
// the request and response payloads from spec.md §6.
package parcelnet

import (
	"fmt"

	"github.com/pg9182/parcel/pkg/netbuf"
)

// Command is the first uint32 of every decoded request or response
// payload.
type Command uint32

const (
	CmdQuit    Command = 1
	CmdSend    Command = 2
	CmdList    Command = 3
	CmdPull    Command = 4
	CmdName    Command = 5
	CmdOK      Command = 6
	CmdBad     Command = 7
	CmdBadName Command = 8
)

func (c Command) String() string {
	switch c {
	case CmdQuit:
		return "QUIT"
	case CmdSend:
		return "SEND"
	case CmdList:
		return "LIST"
	case CmdPull:
		return "PULL"
	case CmdName:
		return "NAME"
	case CmdOK:
		return "OK"
	case CmdBad:
		return "BAD"
	case CmdBadName:
		return "BAD_NAME"
	default:
		return fmt.Sprintf("Command(%d)", uint32(c))
	}
}

// NameRequest is the plaintext payload of a NAME command.
type NameRequest struct {
	Name string
}

// EncodeNameRequest writes: u32 tag=5, u32 name_len, name_len bytes.
func EncodeNameRequest(name string) []byte {
	nb := []byte(name)
	buf := netbuf.New(4 + 4 + len(nb))
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdName))
	w.WriteU32(uint32(len(nb)))
	w.WriteRaw(nb)
	return buf.Bytes()
}

// SendRequest is the plaintext payload of a SEND command.
type SendRequest struct {
	Name    string
	Content []byte
}

// EncodeSendRequest writes:
// u32 tag=2, u32 name_len, u32 content_len, name_len bytes, content_len bytes.
func EncodeSendRequest(name string, content []byte) []byte {
	nb := []byte(name)
	buf := netbuf.New(4 + 4 + 4 + len(nb) + len(content))
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdSend))
	w.WriteU32(uint32(len(nb)))
	w.WriteU32(uint32(len(content)))
	w.WriteRaw(nb)
	w.WriteRaw(content)
	return buf.Bytes()
}

// PullRequest is the plaintext payload of a PULL command.
type PullRequest struct {
	Name string
}

// EncodePullRequest writes: u32 tag=4, u32 name_len, name_len bytes.
func EncodePullRequest(name string) []byte {
	nb := []byte(name)
	buf := netbuf.New(4 + 4 + len(nb))
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdPull))
	w.WriteU32(uint32(len(nb)))
	w.WriteRaw(nb)
	return buf.Bytes()
}

// EncodeListRequest writes: u32 tag=3.
func EncodeListRequest() []byte {
	buf := netbuf.New(4)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdList))
	return buf.Bytes()
}

// EncodeQuitRequest writes: u32 tag=1.
func EncodeQuitRequest() []byte {
	buf := netbuf.New(4)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdQuit))
	return buf.Bytes()
}

// EncodeStatus writes a status-only response: u32 status.
func EncodeStatus(status Command) []byte {
	buf := netbuf.New(4)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(status))
	return buf.Bytes()
}

// ListEntry is one entry in a LIST OK response.
type ListEntry struct {
	Name string
}

// EncodeListOK writes:
// u32 status=OK, u32 count, (u32 entry_name_len, entry_name_len bytes)*.
func EncodeListOK(entries []string) []byte {
	size := 8
	for _, e := range entries {
		size += 4 + len(e)
	}
	buf := netbuf.New(size)
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdOK))
	w.WriteU32(uint32(len(entries)))
	for _, e := range entries {
		eb := []byte(e)
		w.WriteU32(uint32(len(eb)))
		w.WriteRaw(eb)
	}
	return buf.Bytes()
}

// EncodePullOK writes: u32 status=OK, u32 content_len, content_len bytes.
func EncodePullOK(content []byte) []byte {
	buf := netbuf.New(8 + len(content))
	w := netbuf.Acquire(buf, netbuf.ModeWrite)
	w.WriteU32(uint32(CmdOK))
	w.WriteU32(uint32(len(content)))
	w.WriteRaw(content)
	return buf.Bytes()
}

// PeekCommand reads the leading command tag from a decoded plaintext
// payload without consuming the rest of the message.
func PeekCommand(payload []byte) (Command, bool) {
	buf := netbuf.NewFromBytes(payload)
	r := netbuf.Acquire(buf, netbuf.ModeRead)
	v, ok := r.ReadU32()
	return Command(v), ok
}

// DecodeNameRequest parses a NAME request payload after its command tag.
func DecodeNameRequest(r *netbuf.Cursor) (string, bool) {
	length, ok := r.ReadU32()
	if !ok {
		return "", false
	}
	name := make([]byte, length)
	if _, ok := r.ReadRaw(name); !ok {
		return "", false
	}
	return string(name), true
}

// DecodePullRequest parses a PULL request payload after its command tag.
func DecodePullRequest(r *netbuf.Cursor) (string, bool) {
	return DecodeNameRequest(r)
}

// DecodeSendRequest parses a SEND request payload after its command tag,
// copying the name and content out of the underlying buffer so both
// outlive it.
func DecodeSendRequest(r *netbuf.Cursor) (name string, content []byte, ok bool) {
	nameLen, ok1 := r.ReadU32()
	contentLen, ok2 := r.ReadU32()
	if !ok1 || !ok2 {
		return "", nil, false
	}
	nameBuf := make([]byte, nameLen)
	if _, ok := r.ReadRaw(nameBuf); !ok {
		return "", nil, false
	}
	contentBuf := make([]byte, contentLen)
	if _, ok := r.ReadRaw(contentBuf); !ok {
		return "", nil, false
	}
	return string(nameBuf), contentBuf, true
}

// DecodeStatus parses a status-only response.
func DecodeStatus(payload []byte) (Command, bool) {
	return PeekCommand(payload)
}

// DecodeListOK parses a successful LIST response after the leading status
// word has already been consumed by the caller.
func DecodeListOK(r *netbuf.Cursor) ([]ListEntry, bool) {
	count, ok := r.ReadU32()
	if !ok {
		return nil, false
	}
	entries := make([]ListEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		length, ok := r.ReadU32()
		if !ok {
			return nil, false
		}
		if r.EOF() && length > 0 {
			return nil, false
		}
		name := make([]byte, length)
		if _, ok := r.ReadRaw(name); !ok {
			return nil, false
		}
		entries = append(entries, ListEntry{Name: string(name)})
	}
	return entries, true
}

// DecodePullOK parses a successful PULL response after the leading status
// word has already been consumed by the caller.
func DecodePullOK(r *netbuf.Cursor) ([]byte, bool) {
	length, ok := r.ReadU32()
	if !ok {
		return nil, false
	}
	content := make([]byte, length)
	if _, ok := r.ReadRaw(content); !ok {
		return nil, false
	}
	return content, true
}
