// Package command parses the allocator shell's command protocol.
//
// One line holds one command:
//
//	RQ <process> <size> <F|B|W>   request memory
//	RL <process>                  release memory
//	C                             compact
//	STAT                          report status
//	X                             exit
//
// Keywords are case-insensitive. Blank lines and lines starting with '#'
// parse as KindEmpty so scripts can carry comments.
package command

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshuapare/memsim/ledger"
)

var (
	// ErrUnknownCommand indicates a keyword outside the protocol.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrUsage indicates a known keyword with missing or malformed arguments.
	ErrUsage = errors.New("command: bad arguments")
)

// Usage lists the available keywords, as shown after an invalid command.
const Usage = "Available commands: RQ, RL, C, STAT, X"

// Kind identifies the operation a command maps to.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindRequest
	KindRelease
	KindCompact
	KindStatus
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRequest:
		return "request"
	case KindRelease:
		return "release"
	case KindCompact:
		return "compact"
	case KindStatus:
		return "status"
	case KindExit:
		return "exit"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Command is one parsed line. Owner, Size and Strategy are set only for
// the kinds that take them.
type Command struct {
	Kind     Kind
	Owner    string
	Size     int64
	Strategy ledger.Strategy
}

func (c Command) String() string {
	switch c.Kind {
	case KindRequest:
		return fmt.Sprintf("RQ %s %d %s", c.Owner, c.Size, c.Strategy.Code())
	case KindRelease:
		return "RL " + c.Owner
	case KindCompact:
		return "C"
	case KindStatus:
		return "STAT"
	case KindExit:
		return "X"
	}
	return ""
}

// SyntaxError reports why a line could not be parsed. It unwraps to
// ErrUnknownCommand or ErrUsage.
type SyntaxError struct {
	Keyword string
	Reason  string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%q: %v", e.Keyword, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Keyword, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

var keywords = map[string]Kind{
	"RQ":      KindRequest,
	"REQUEST": KindRequest,
	"RL":      KindRelease,
	"RELEASE": KindRelease,
	"C":       KindCompact,
	"COMPACT": KindCompact,
	"STAT":    KindStatus,
	"STATUS":  KindStatus,
	"X":       KindExit,
	"EXIT":    KindExit,
	"QUIT":    KindExit,
}

// Parse parses one line of input.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Command{Kind: KindEmpty}, nil
	}

	// A Caser is stateful, so each call gets its own.
	kw := cases.Upper(language.Und).String(fields[0])
	kind, ok := keywords[kw]
	if !ok {
		return Command{}, &SyntaxError{Keyword: fields[0], Err: ErrUnknownCommand}
	}
	args := fields[1:]

	switch kind {
	case KindRequest:
		return parseRequest(kw, args)
	case KindRelease:
		if len(args) != 1 {
			return Command{}, usage(kw, "usage: RL <process>")
		}
		return Command{Kind: KindRelease, Owner: args[0]}, nil
	default:
		if len(args) != 0 {
			return Command{}, usage(kw, "takes no arguments")
		}
		return Command{Kind: kind}, nil
	}
}

func parseRequest(kw string, args []string) (Command, error) {
	if len(args) != 3 {
		return Command{}, usage(kw, "usage: RQ <process> <size> <F|B|W>")
	}
	size, err := ParseSize(args[1])
	if err != nil {
		return Command{}, usage(kw, err.Error())
	}
	strategy, err := ledger.ParseStrategy(args[2])
	if err != nil {
		return Command{}, usage(kw, fmt.Sprintf("strategy %q must be F, B or W", args[2]))
	}
	return Command{
		Kind:     KindRequest,
		Owner:    args[0],
		Size:     size,
		Strategy: strategy,
	}, nil
}

// ParseSize accepts a positive integer byte count or a size with a unit
// suffix such as "4KB" or "1MiB".
func ParseSize(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("size %d must be positive", n)
		}
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if !wholeBytes(s) {
		return 0, fmt.Errorf("size %q is not a whole number of bytes", s)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

// wholeBytes reports whether the number in s times its unit multiplier is
// an integer. ParseBytes truncates, so "1.7" and "1.5B" would pass as 1.
func wholeBytes(s string) bool {
	i := strings.IndexFunc(s, unicode.IsLetter)
	if i < 0 {
		return false
	}
	num, unit := strings.TrimSpace(s[:i]), s[i:]
	mult, err := humanize.ParseBytes("1" + unit)
	if err != nil {
		return false
	}
	r, ok := new(big.Rat).SetString(strings.ReplaceAll(num, ",", ""))
	if !ok {
		return false
	}
	return r.Mul(r, new(big.Rat).SetInt(new(big.Int).SetUint64(mult))).IsInt()
}

func usage(kw, reason string) error {
	return &SyntaxError{Keyword: kw, Reason: reason, Err: ErrUsage}
}
