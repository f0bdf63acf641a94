// Command parcel-client is the interactive file-storage client: it
// connects once, completes the key handshake, then reads name/send/
// list/pull commands from stdin until EOF or an unrecognized line
// (original_source/src/client_tcp.c).
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/pg9182/parcel/pkg/framesock"
	"github.com/pg9182/parcel/pkg/netbuf"
	"github.com/pg9182/parcel/pkg/parcelconf"
	"github.com/pg9182/parcel/pkg/parcelnet"
)

var opt struct {
	Help bool
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	cfg := parcelconf.ClientConfig{
		Address: parcelconf.DefaultAddress,
		Port:    parcelconf.DefaultPort,
		Seed:    uint32(time.Now().Unix()),
	}
	rest := extractClientFlags(&cfg, os.Args[1:])
	pflag.CommandLine.Parse(rest)

	if pflag.NArg() > 1 || opt.Help {
		fmt.Printf("usage: %s [-p<port>] [-a<address>] [-s<seed>] [env_file]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
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
		os.Exit(-1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(cfg parcelconf.ClientConfig) error {
	conn, err := net.Dial("tcp", net.JoinHostPort(cfg.Address, strconv.Itoa(int(cfg.Port))))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	tcp := framesock.NewTCPConn(conn)

	own, peerPublic, err := parcelnet.ClientHandshake(tcp, rand.New(rand.NewSource(int64(cfg.Seed))))
	if err != nil {
		tcp.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	codec := parcelnet.NewCodec(tcp, own.Private, peerPublic)

	c := &client{codec: codec, tcp: tcp}
	c.printHelp()
	fmt.Printf(
		"RSA Keys [\n\tClient Private : { %d - %d }\n\tServer Public : { %d - %d }\n]\n",
		own.Private.Exponent, own.Private.Modulus,
		peerPublic.Exponent, peerPublic.Modulus,
	)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if !c.dispatch(scanner.Text()) {
			break
		}
	}

	tcp.Close()
	return nil
}

// client holds the single connection an interactive session drives
// name/send/list/pull commands over.
type client struct {
	codec *parcelnet.Codec
	tcp   *framesock.TCPConn
}

func (c *client) printHelp() {
	fmt.Println("> Commands :")
	fmt.Println("> name user_name -> Set the current user name, must be the first command.")
	fmt.Println("> send file_name -> Send file to the server for the current user.")
	fmt.Println("> list -> List all file for the current user")
	fmt.Println("> pull file_name -> Pull a file from the server for the current user.")
}

// dispatch runs one line of input and reports whether the session should
// keep going: false means either a clean quit or an unrecoverable
// connection error.
func (c *client) dispatch(line string) bool {
	if strings.Contains(line, "help") {
		c.printHelp()
		return true
	}

	const cmdLen = 4
	word := line
	if len(word) > cmdLen {
		word = word[:cmdLen]
	}
	arg := ""
	if len(line) > cmdLen+1 && line[cmdLen] == ' ' {
		arg = line[cmdLen+1:]
	}

	switch word {
	case "send":
		return c.doSend(arg)
	case "list":
		return c.doList()
	case "pull":
		return c.doPull(arg)
	case "name":
		return c.doName(arg)
	default:
		c.send(parcelnet.EncodeQuitRequest())
		return false
	}
}

func (c *client) send(payload []byte) error {
	return c.codec.Send(payload)
}

func (c *client) roundTrip(payload []byte) (*netbuf.Cursor, parcelnet.Command, bool) {
	if err := c.send(payload); err != nil {
		fmt.Println("> Connection lost.")
		return nil, 0, false
	}
	resp, err := c.codec.Recv()
	if err != nil {
		fmt.Println("> Connection lost.")
		return nil, 0, false
	}
	buf := netbuf.NewFromBytes(resp)
	r := netbuf.Acquire(buf, netbuf.ModeRead)
	status, ok := r.ReadU32()
	if !ok {
		fmt.Println("> Connection lost.")
		return nil, 0, false
	}
	return r, parcelnet.Command(status), true
}

func (c *client) doSend(path string) bool {
	if path == "" {
		fmt.Println("> You can't send file without givin its path.")
		return true
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		fmt.Println("> You can't send a directory.")
		return true
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("> File %s can't be sent.\n", path)
		return true
	}

	_, status, ok := c.roundTrip(parcelnet.EncodeSendRequest(path, content))
	if !ok {
		return false
	}

	switch status {
	case parcelnet.CmdOK:
		fmt.Printf("> Sending of %s succeded.\n", path)
	case parcelnet.CmdBadName:
		fmt.Println("> You must set your name with \"name\" command before using send.")
	case parcelnet.CmdBad:
		fmt.Printf("> Server can't store %s.\n", path)
	default:
		fmt.Println("> Sending failed.")
		return false
	}
	return true
}

func (c *client) doList() bool {
	r, status, ok := c.roundTrip(parcelnet.EncodeListRequest())
	if !ok {
		return false
	}

	switch status {
	case parcelnet.CmdBad:
		fmt.Println("> No entries in the file.")
		return true
	case parcelnet.CmdBadName:
		fmt.Println("> You must set your name with \"name\" command before using list.")
		return true
	case parcelnet.CmdOK:
	default:
		fmt.Println("> Unknow error.")
		return true
	}

	entries, ok := parcelnet.DecodeListOK(r)
	if !ok {
		fmt.Println("> Error during listing.")
		return false
	}
	for _, e := range entries {
		fmt.Printf("> Entry : %s\n", e.Name)
	}
	return true
}

func (c *client) doPull(name string) bool {
	if name == "" {
		fmt.Println("> You can't pull file without givin its entry name.")
		return true
	}

	r, status, ok := c.roundTrip(parcelnet.EncodePullRequest(name))
	if !ok {
		return false
	}

	switch status {
	case parcelnet.CmdBad:
		fmt.Printf("> File %s nof found.\n", name)
		return true
	case parcelnet.CmdBadName:
		fmt.Println("> You must set your name with \"name\" command before using pull.")
		return true
	case parcelnet.CmdOK:
	default:
		fmt.Println("> Unknow error.")
		return true
	}

	content, ok := parcelnet.DecodePullOK(r)
	if !ok {
		fmt.Println("> Can't create destination file")
		return true
	}
	if err := os.WriteFile(name, content, 0o644); err != nil {
		fmt.Println("> Can't create destination file")
		return true
	}
	fmt.Printf("> File %s writing completed.\n", name)
	return true
}

func (c *client) doName(name string) bool {
	if name == "" {
		fmt.Println("> You can't set you user name as empty.")
		return true
	}

	_, status, ok := c.roundTrip(parcelnet.EncodeNameRequest(name))
	if !ok {
		return false
	}
	if status == parcelnet.CmdOK {
		fmt.Printf("> Nammed : %s.\n", name)
		return true
	}
	fmt.Println("> Naming failed.")
	return false
}
