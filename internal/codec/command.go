// Package codec implements the Protocol Codec (spec.md §4.4): the wire
// command grammar and the escape envelope that wraps each outgoing frame.
//
// This replaces the teacher's fixed-header binary framing
// (pkg/protocol/udp_protocol.go, a CRC32-checked UDP packet format) with
// the text key=value grammar this protocol actually uses; see DESIGN.md
// for why the binary framing wasn't a fit.
package codec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/deb2000-sudo/termcargo/internal/compressor"
	"github.com/deb2000-sudo/termcargo/internal/plan"
)

// Action identifies what a FileTransmissionCommand does.
type Action int

const (
	ActionSend Action = iota
	ActionFile
	ActionData
	ActionEndData
	ActionCancel
	ActionFinish
	ActionStatus // only ever received, never sent
)

var actionNames = map[Action]string{
	ActionSend:    "send",
	ActionFile:    "file",
	ActionData:    "data",
	ActionEndData: "end_data",
	ActionCancel:  "cancel",
	ActionFinish:  "finish",
	ActionStatus:  "status",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Command is a FileTransmissionCommand: the wire record the sender and
// receiver exchange.
type Command struct {
	Action      Action
	ID          string // request id
	FileID      string
	Status      string
	Name        string
	Size        int64
	MTime       int64
	Permissions uint32
	Compression compressor.Mode
	FType       plan.FileType
	TType       plan.TransmissionType
	Data        []byte
	Password    string
}

// Serialize renders cmd as the comma-separated key=value grammar
// (spec.md §6). Binary Data is base64-encoded. Only fields relevant to
// cmd's Action are emitted, matching the original sender which never sends
// fields the receiver doesn't expect for a given action: action always,
// file_id when set, every metadata field for a file command (zero values
// included), and pw or data only when non-empty.
func (cmd Command) Serialize() string {
	var parts []string
	add := func(k, v string) { parts = append(parts, k+"="+v) }

	add("action", cmd.Action.String())
	if cmd.FileID != "" {
		add("file_id", cmd.FileID)
	}
	switch cmd.Action {
	case ActionSend:
		if cmd.Password != "" {
			add("pw", cmd.Password)
		}
	case ActionFile:
		add("name", encodeValue(cmd.Name))
		add("size", strconv.FormatInt(cmd.Size, 10))
		add("mtime", strconv.FormatInt(cmd.MTime, 10))
		add("permissions", strconv.FormatUint(uint64(cmd.Permissions), 10))
		add("compression", cmd.Compression.String())
		add("ftype", cmd.FType.String())
		add("ttype", ttypeName(cmd.TType))
	case ActionData, ActionEndData:
		if len(cmd.Data) > 0 {
			add("data", base64.StdEncoding.EncodeToString(cmd.Data))
		}
	}
	return strings.Join(parts, ",")
}

func ttypeName(t plan.TransmissionType) string {
	if t == plan.TransmissionRsync {
		return "rsync"
	}
	return "simple"
}

// encodeValue escapes commas so a literal comma in a file name can't be
// mistaken for the field separator.
func encodeValue(v string) string {
	return strings.ReplaceAll(v, ",", "\\,")
}

func decodeValue(v string) string {
	return strings.ReplaceAll(v, "\\,", ",")
}

// Parse decodes the grammar Serialize produces (and whatever a conforming
// receiver sends back: "status" commands).
func Parse(s string) (Command, error) {
	var cmd Command
	for _, field := range splitFields(s) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return cmd, fmt.Errorf("malformed field %q", field)
		}
		switch k {
		case "action":
			a, ok := actionsByName[v]
			if !ok {
				return cmd, fmt.Errorf("unknown action %q", v)
			}
			cmd.Action = a
		case "id":
			cmd.ID = v
		case "file_id":
			cmd.FileID = v
		case "status":
			cmd.Status = v
		case "name":
			cmd.Name = decodeValue(v)
		case "size":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return cmd, fmt.Errorf("bad size %q: %w", v, err)
			}
			cmd.Size = n
		case "mtime":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return cmd, fmt.Errorf("bad mtime %q: %w", v, err)
			}
			cmd.MTime = n
		case "permissions":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return cmd, fmt.Errorf("bad permissions %q: %w", v, err)
			}
			cmd.Permissions = uint32(n)
		case "compression":
			if v == "zlib" {
				cmd.Compression = compressor.Zlib
			}
		case "ftype":
			for t := plan.FileRegular; t <= plan.FileLink; t++ {
				if t.String() == v {
					cmd.FType = t
				}
			}
		case "ttype":
			if v == "rsync" {
				cmd.TType = plan.TransmissionRsync
			}
		case "data":
			data, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return cmd, fmt.Errorf("bad data: %w", err)
			}
			cmd.Data = data
		case "pw":
			cmd.Password = v
		}
	}
	return cmd, nil
}

// splitFields splits on unescaped commas.
func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == ',':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
