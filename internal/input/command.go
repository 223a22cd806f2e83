package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CommandKind identifies a command mode command
type CommandKind int

const (
	CmdConfigShow CommandKind = iota
	CmdConfigSet
	CmdConfigSave
	CmdConfigEdit
	CmdProvider
	CmdModel
	CmdJump
	CmdFilter
	CmdSearch
	CmdNeovimConnect
	CmdNeovimPush
	CmdNeovimClear
	CmdNeovimStatus
	CmdYank
	CmdPaste
	CmdExport
	CmdSessions
	CmdBackups
	CmdHelp
	CmdQuit
	CmdApply
	CmdClear
)

// Command is a parsed command line
type Command struct {
	Kind CommandKind
	// Args holds the arguments after the command and subcommand
	Args []string
}

// Arg returns argument i or ""
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Commands lists the top-level command names, for completion
var Commands = []string{
	"apply", "backups", "clear", "config", "export", "filter", "help", "jump",
	"model", "neovim", "paste", "provider", "quit", "search", "sessions", "yank",
}

// ParseCommand parses a command line without its leading colon
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}
	name, args := parts[0], parts[1:]

	switch name {
	case "config":
		return parseConfig(args)
	case "provider":
		return Command{Kind: CmdProvider, Args: joinRest(args)}, nil
	case "model":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: model <name>", ErrMissingArgument)
		}
		return Command{Kind: CmdModel, Args: args[:1]}, nil
	case "jump":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: jump <file>", ErrMissingArgument)
		}
		return Command{Kind: CmdJump, Args: args[:1]}, nil
	case "filter":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: filter <pending|accepted|rejected|all>", ErrMissingArgument)
		}
		switch args[0] {
		case "pending", "accepted", "rejected", "all":
			return Command{Kind: CmdFilter, Args: args[:1]}, nil
		}
		return Command{}, fmt.Errorf("%w: filter %s", ErrInvalidArgument, args[0])
	case "search":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: search <text>", ErrMissingArgument)
		}
		return Command{Kind: CmdSearch, Args: joinRest(args)}, nil
	case "neovim", "nvim":
		return parseNeovim(args)
	case "yank", "y":
		what := "hunk"
		if len(args) > 0 {
			what = args[0]
		}
		if what != "hunk" && what != "prompt" {
			return Command{}, fmt.Errorf("%w: yank %s", ErrInvalidArgument, what)
		}
		return Command{Kind: CmdYank, Args: []string{what}}, nil
	case "paste":
		return Command{Kind: CmdPaste}, nil
	case "export":
		return Command{Kind: CmdExport, Args: joinRest(args)}, nil
	case "sessions":
		return Command{Kind: CmdSessions}, nil
	case "backups":
		return Command{Kind: CmdBackups}, nil
	case "help", "h":
		return Command{Kind: CmdHelp}, nil
	case "quit", "q":
		return Command{Kind: CmdQuit}, nil
	case "apply", "w":
		return Command{Kind: CmdApply}, nil
	case "clear":
		return Command{Kind: CmdClear}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func joinRest(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return []string{strings.Join(args, " ")}
}

func parseConfig(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: CmdConfigShow}, nil
	}
	switch args[0] {
	case "show":
		return Command{Kind: CmdConfigShow, Args: args[1:]}, nil
	case "set":
		if len(args) < 3 {
			return Command{}, fmt.Errorf("%w: config set <key> <value>", ErrMissingArgument)
		}
		return Command{Kind: CmdConfigSet, Args: []string{args[1], strings.Join(args[2:], " ")}}, nil
	case "save":
		return Command{Kind: CmdConfigSave}, nil
	case "edit":
		return Command{Kind: CmdConfigEdit}, nil
	}
	return Command{}, fmt.Errorf("%w: config %s", ErrInvalidArgument, args[0])
}

func parseNeovim(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: CmdNeovimStatus}, nil
	}
	switch args[0] {
	case "connect":
		return Command{Kind: CmdNeovimConnect, Args: args[1:]}, nil
	case "push":
		return Command{Kind: CmdNeovimPush}, nil
	case "clear":
		return Command{Kind: CmdNeovimClear}, nil
	case "status":
		return Command{Kind: CmdNeovimStatus}, nil
	}
	return Command{}, fmt.Errorf("%w: neovim %s", ErrInvalidArgument, args[0])
}

// Complete returns candidates for the first word of input, best match
// first. Prefix matches rank before other fuzzy matches.
func Complete(input string, candidates []string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		out := append([]string(nil), candidates...)
		sort.Strings(out)
		return out
	}

	ranks := fuzzy.RankFindFold(input, candidates)
	sort.SliceStable(ranks, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(ranks[i].Target), strings.ToLower(input))
		pj := strings.HasPrefix(strings.ToLower(ranks[j].Target), strings.ToLower(input))
		if pi != pj {
			return pi
		}
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
