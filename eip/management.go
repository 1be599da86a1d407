package eip

import (
	"strconv"
	"strings"
)

// EventKind classifies a management interface line.
type EventKind int

const (
	EventNone EventKind = iota
	EventState
	EventByteCount
	EventTunTapRead
	EventTunTapWrite
	EventEnd
)

// Event is a parsed management interface line.
type Event struct {
	Kind     EventKind
	Step     string
	LocalIP  string
	RemoteIP string
	Bytes    [2]uint64
}

// ParseLine parses one line from the management interface. Lines it
// does not understand yield EventNone.
//
// Recognized forms:
//
//	>STATE:1700000000,CONNECTED,SUCCESS,10.8.0.2,198.51.100.1
//	1700000000,CONNECTED,SUCCESS,10.8.0.2,198.51.100.1
//	>BYTECOUNT:1024,2048
//	TUN/TAP read bytes,1024
//	TUN/TAP write bytes,2048
//	END
func ParseLine(line string) Event {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case line == "END":
		return Event{Kind: EventEnd}
	case strings.HasPrefix(line, ">STATE:"):
		return parseState(strings.TrimPrefix(line, ">STATE:"))
	case strings.HasPrefix(line, ">BYTECOUNT:"):
		fields := strings.Split(strings.TrimPrefix(line, ">BYTECOUNT:"), ",")
		if len(fields) != 2 {
			return Event{}
		}
		in, err1 := strconv.ParseUint(fields[0], 10, 64)
		out, err2 := strconv.ParseUint(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			return Event{}
		}
		return Event{Kind: EventByteCount, Bytes: [2]uint64{in, out}}
	case strings.HasPrefix(line, "TUN/TAP read bytes,"):
		return parseCounter(EventTunTapRead, strings.TrimPrefix(line, "TUN/TAP read bytes,"))
	case strings.HasPrefix(line, "TUN/TAP write bytes,"):
		return parseCounter(EventTunTapWrite, strings.TrimPrefix(line, "TUN/TAP write bytes,"))
	case len(line) > 0 && line[0] >= '0' && line[0] <= '9':
		// Reply to the "state" command.
		return parseState(line)
	}
	return Event{}
}

func parseState(body string) Event {
	fields := strings.Split(body, ",")
	if len(fields) < 2 {
		return Event{}
	}
	if _, err := strconv.ParseInt(fields[0], 10, 64); err != nil {
		return Event{}
	}
	step := strings.TrimSpace(fields[1])
	if step == "" {
		return Event{}
	}

	ev := Event{Kind: EventState, Step: step}
	if len(fields) > 3 {
		ev.LocalIP = fields[3]
	}
	if len(fields) > 4 {
		ev.RemoteIP = fields[4]
	}
	return ev
}

func parseCounter(kind EventKind, value string) Event {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return Event{}
	}
	return Event{Kind: kind, Bytes: [2]uint64{n, 0}}
}
