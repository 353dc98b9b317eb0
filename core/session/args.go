package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/vocablive/core/words"
	"github.com/spf13/pflag"
)

var ErrMissingArgument = errors.New("missing launch argument")

// Args are the launch arguments of a conversation unit process.
type Args struct {
	RoomURL string
	Token   string
	// Words is a JSON array of target words.
	Words   string
	Summary string
}

// LaunchArgs encodes sc as command line flags understood by [Args.BindFlags].
func LaunchArgs(sc Context) ([]string, error) {
	args := []string{"-u", sc.RoomURL, "-t", sc.Token}
	if len(sc.Words) > 0 {
		encoded, err := json.Marshal(sc.Words)
		if err != nil {
			return nil, fmt.Errorf("failed to encode words: %w", err)
		}
		args = append(args, "-w", string(encoded))
	}
	if sc.Summary != "" {
		args = append(args, "-s", sc.Summary)
	}
	return args, nil
}

func (a *Args) BindFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&a.RoomURL, "url", "u", "", "room URL to join")
	flags.StringVarP(&a.Token, "token", "t", "", "room token")
	flags.StringVarP(&a.Words, "words", "w", "", "JSON array of target words")
	flags.StringVarP(&a.Summary, "summary", "s", "", "thematic summary of the source material")
}

// ParseArgs parses launch arguments into a session context.
func ParseArgs(argv []string, defaultWords []string) (Context, error) {
	var args Args
	flags := pflag.NewFlagSet("session", pflag.ContinueOnError)
	args.BindFlags(flags)
	if err := flags.Parse(argv); err != nil {
		return Context{}, fmt.Errorf("failed to parse launch arguments: %w", err)
	}
	return args.Context(defaultWords)
}

// Context validates a and resolves its target words. Missing or malformed
// words fall back to defaultWords.
func (a Args) Context(defaultWords []string) (Context, error) {
	if a.RoomURL == "" {
		return Context{}, fmt.Errorf("%w: url", ErrMissingArgument)
	}
	if a.Token == "" {
		return Context{}, fmt.Errorf("%w: token", ErrMissingArgument)
	}

	var targetWords []string
	if a.Words != "" {
		var entries []any
		if err := json.Unmarshal([]byte(a.Words), &entries); err != nil {
			logger.Warn("ignoring malformed words argument", "error", err)
		} else {
			targetWords = WordsFromEntries(entries)
		}
	}

	return NewContext(a.RoomURL, a.Token, words.OrDefault(targetWords, defaultWords), a.Summary), nil
}
