package wire

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AppendPresence appends the HB line for p to dst.
func AppendPresence(dst []byte, p Presence) []byte {
	dst = append(dst, KeywordPresence...)
	dst = appendID(dst, " truck_id=", p.TruckID)
	dst = append(dst, " lat="...)
	dst = strconv.AppendFloat(dst, p.Lat, 'f', -1, 64)
	dst = append(dst, " lon="...)
	dst = strconv.AppendFloat(dst, p.Lon, 'f', -1, 64)
	dst = append(dst, " ts="...)
	dst = strconv.AppendInt(dst, p.Timestamp, 10)
	dst = append(dst, " tcp="...)
	dst = strconv.AppendInt(dst, int64(p.Port), 10)
	return append(dst, '\n')
}

// EncodePresence renders p as a newline-terminated HB line.
func EncodePresence(p Presence) []byte {
	return AppendPresence(make([]byte, 0, MaxLineLen), p)
}

// DecodePresence parses an HB line. Keys may come in any order and unknown keys
// are ignored; truck_id and a positive tcp port are mandatory.
func DecodePresence(line string) (Presence, error) {
	body, err := cutKeyword(line, KeywordPresence)
	if err != nil {
		return Presence{}, err
	}

	var (
		p      Presence
		badKey string
	)
	scanFields(body, func(key, val string) {
		var err error
		switch key {
		case "truck_id":
			p.TruckID = MakeID(val)
		case "lat":
			p.Lat, err = parseCoord(val, 90)
		case "lon":
			p.Lon, err = parseCoord(val, 180)
		case "ts":
			p.Timestamp, err = strconv.ParseInt(val, 10, 64)
		case "tcp":
			p.Port, err = strconv.Atoi(val)
		}
		if err != nil && badKey == "" {
			badKey = key
		}
	})

	switch {
	case badKey != "":
		return Presence{}, fmt.Errorf("%w: bad %s", ErrMalformed, badKey)
	case p.TruckID == "":
		return Presence{}, fmt.Errorf("%w: missing truck_id", ErrMalformed)
	case p.Port <= 0 || p.Port > 65535:
		return Presence{}, fmt.Errorf("%w: invalid tcp port %d", ErrMalformed, p.Port)
	}
	return p, nil
}

// AppendRequest appends the PING line for r to dst.
func AppendRequest(dst []byte, r Request) []byte {
	dst = append(dst, KeywordRequest...)
	dst = appendID(dst, " truck_id=", r.TruckID)
	dst = appendID(dst, " user_id=", r.UserID)
	dst = appendQuoted(dst, " addr=", truncate(string(r.Address), MaxAddressLen))
	dst = appendQuoted(dst, " note=", truncate(string(r.Note), MaxNoteLen))
	return append(dst, '\n')
}

// EncodeRequest renders r as a newline-terminated PING line.
func EncodeRequest(r Request) []byte {
	return AppendRequest(make([]byte, 0, MaxLineLen), r)
}

// DecodeRequest parses a PING line. truck_id and user_id are mandatory.
func DecodeRequest(line string) (Request, error) {
	body, err := cutKeyword(line, KeywordRequest)
	if err != nil {
		return Request{}, err
	}

	var r Request
	scanFields(body, func(key, val string) {
		switch key {
		case "truck_id":
			r.TruckID = MakeID(val)
		case "user_id":
			r.UserID = MakeID(val)
		case "addr":
			r.Address = MakeAddress(val)
		case "note":
			r.Note = MakeNote(val)
		}
	})

	if r.TruckID == "" {
		return Request{}, fmt.Errorf("%w: missing truck_id", ErrMalformed)
	}
	if r.UserID == "" {
		return Request{}, fmt.Errorf("%w: missing user_id", ErrMalformed)
	}
	return r, nil
}

// AppendAcknowledge appends the ACK line for a to dst.
func AppendAcknowledge(dst []byte, a Acknowledge) []byte {
	dst = append(dst, KeywordAcknowledge...)
	dst = appendID(dst, " truck_id=", a.TruckID)
	dst = append(dst, " eta_min="...)
	dst = strconv.AppendInt(dst, int64(a.ETAMinutes), 10)
	dst = append(dst, " queued="...)
	dst = strconv.AppendInt(dst, int64(a.Queued), 10)
	return append(dst, '\n')
}

// EncodeAcknowledge renders a as a newline-terminated ACK line.
func EncodeAcknowledge(a Acknowledge) []byte {
	return AppendAcknowledge(make([]byte, 0, MaxLineLen), a)
}

// DecodeAcknowledge parses an ACK line. truck_id is mandatory.
func DecodeAcknowledge(line string) (Acknowledge, error) {
	body, err := cutKeyword(line, KeywordAcknowledge)
	if err != nil {
		return Acknowledge{}, err
	}

	var (
		a      Acknowledge
		badKey string
	)
	scanFields(body, func(key, val string) {
		var err error
		switch key {
		case "truck_id":
			a.TruckID = MakeID(val)
		case "eta_min":
			a.ETAMinutes, err = strconv.Atoi(val)
		case "queued":
			a.Queued, err = strconv.Atoi(val)
		}
		if err != nil && badKey == "" {
			badKey = key
		}
	})

	if badKey != "" {
		return Acknowledge{}, fmt.Errorf("%w: bad %s", ErrMalformed, badKey)
	}
	if a.TruckID == "" {
		return Acknowledge{}, fmt.Errorf("%w: missing truck_id", ErrMalformed)
	}
	return a, nil
}

var errCoordRange = errors.New("coordinate out of range")

// parseCoord parses a finite degree value within [-limit, limit].
func parseCoord(val string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, errCoordRange
	}
	return v, nil
}

func appendID(dst []byte, prefix string, id ID) []byte {
	dst = append(dst, prefix...)
	return append(dst, truncate(string(id), MaxIDLen)...)
}

func appendQuoted(dst []byte, prefix, text string) []byte {
	dst = append(dst, prefix...)
	dst = append(dst, '"')
	dst = append(dst, sanitizeText(text)...)
	return append(dst, '"')
}

// cutKeyword checks the leading keyword and returns the rest of the first line.
func cutKeyword(line, keyword string) (string, error) {
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSuffix(line, "\r")

	rest, ok := strings.CutPrefix(line, keyword)
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", ErrWrongKind
	}
	return rest, nil
}

// scanFields walks whitespace separated key=value pairs. A value starting with a
// double quote runs to the closing quote and may contain spaces. Tokens without
// '=' are skipped.
func scanFields(body string, fn func(key, val string)) {
	for {
		body = strings.TrimLeft(body, " \t")
		if body == "" {
			return
		}

		end := strings.IndexAny(body, " \t=")
		if end < 0 {
			return
		}
		if body[end] != '=' {
			body = body[end:]
			continue
		}
		key := body[:end]
		body = body[end+1:]

		var val string
		if strings.HasPrefix(body, `"`) {
			body = body[1:]
			if q := strings.IndexByte(body, '"'); q >= 0 {
				val, body = body[:q], body[q+1:]
			} else {
				val, body = body, ""
			}
		} else if sp := strings.IndexAny(body, " \t"); sp >= 0 {
			val, body = body[:sp], body[sp:]
		} else {
			val, body = body, ""
		}
		fn(key, val)
	}
}
