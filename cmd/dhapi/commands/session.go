package commands

import (
	"context"
	"dhapi/lib/scrapers/dhlottery"
	"dhapi/lib/scrapers/dhlottery/core"
	"dhapi/lib/scrapers/dhlottery/vaccount"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/tcnksm/go-input"
)

var errNoUsername = errors.New("no username given, use --username, the config file or " + envUsername)

func askPassword(username string) (string, error) {
	ui := input.DefaultUI()
	return ui.Ask(fmt.Sprintf("%s 비밀번호:", username), &input.Options{
		Mask:     true,
		Required: true,
		Loop:     true,
	})
}

// credentials resolves the username and password, prompting for the
// password when nothing else provides it.
func credentials() (string, string, error) {
	if config.Username == "" {
		return "", "", errNoUsername
	}
	if config.Password != "" {
		return config.Username, config.Password, nil
	}
	password, err := askPassword(config.Username)
	if err != nil {
		return "", "", err
	}
	return config.Username, password, nil
}

func confirm(question string) (bool, error) {
	if flagYes {
		return true, nil
	}
	ui := input.DefaultUI()
	answer, err := ui.Ask(question+" [y/N]", &input.Options{
		Default:     "n",
		HideDefault: true,
		Loop:        true,
		ValidateFunc: func(s string) error {
			switch strings.ToLower(s) {
			case "y", "yes", "n", "no":
				return nil
			}
			return fmt.Errorf("answer y or n")
		},
	})
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func openScriptCache() (*badger.DB, error) {
	opts := badger.DefaultOptions(config.ScriptCacheDir).WithLogger(nil)
	if config.ScriptCacheDir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func clientOptions(cache *badger.DB) dhlottery.Options {
	return dhlottery.Options{
		Session: core.ClientOptions{
			RequestsPerSecond: config.RequestsPerSecond,
			InstrumentOutput:  debugDump,
		},
		Resolver: vaccount.Options{
			Debug:       debugDump,
			ScriptCache: cache,
		},
	}
}

// withSession logs in and hands a ready client to `fn`, results are
// reported through the printer.
func withSession(ctx context.Context, fn func(client *dhlottery.Client) error) error {
	username, password, err := credentials()
	if err != nil {
		return err
	}

	cache, err := openScriptCache()
	if err != nil {
		return fmt.Errorf("open script cache: %w", err)
	}
	defer cache.Close()

	client, err := dhlottery.New(ctx, clientOptions(cache), output)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "logging in", "username", username)
	err = client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	err = fn(client)
	if dhlottery.IsTransient(err) {
		return fmt.Errorf("%w (잠시 후 다시 시도해주세요)", err)
	}
	return err
}
