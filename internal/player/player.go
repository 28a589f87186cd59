// Package player hands a resolved source to a local media player.
// Players are launched with exec.Command and explicit argument slices,
// so remote URLs and titles never pass through a shell.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"streamscout/internal/media"
)

// Player launches one media player binary.
type Player struct {
	name string
	args func(src media.SourceRecord, subs []media.SubtitleRecord, title string) []string
}

var players = map[string]Player{
	"mpv":       {name: "mpv", args: mpvArgs},
	"iina":      {name: "iina", args: mpvArgs},
	"celluloid": {name: "celluloid", args: mpvArgs},
	"vlc":       {name: "vlc", args: vlcArgs},
}

// Names returns the supported player names in sorted order.
func Names() []string {
	names := make([]string, 0, len(players))
	for n := range players {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns the player registered under name.
func New(name string) (Player, error) {
	p, ok := players[name]
	if !ok {
		return Player{}, fmt.Errorf("unsupported player %q (valid: %v)", name, Names())
	}
	return p, nil
}

func (p Player) Name() string { return p.name }

// Available checks if the player binary exists in PATH.
func (p Player) Available() bool {
	_, err := exec.LookPath(p.name)
	return err == nil
}

// Args returns the command-line arguments used to play src.
func (p Player) Args(src media.SourceRecord, subs []media.SubtitleRecord, title string) []string {
	return p.args(src, subs, title)
}

// Play runs the player in the foreground until it exits or ctx is cancelled.
// A non-zero exit after the user closes the player is not an error.
func (p Player) Play(ctx context.Context, src media.SourceRecord, subs []media.SubtitleRecord, title string) error {
	if src.URL == "" {
		return fmt.Errorf("no source to play")
	}
	cmd := exec.CommandContext(ctx, p.name, p.Args(src, subs, title)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("running %s: %w", p.name, err)
	}
	return nil
}

// mpvArgs also serves iina and celluloid, which accept mpv-style flags.
func mpvArgs(src media.SourceRecord, subs []media.SubtitleRecord, title string) []string {
	args := []string{
		src.URL,
		"--force-media-title=" + title,
		"--really-quiet",
	}
	for _, sub := range subs {
		if sub.URL != "" {
			args = append(args, "--sub-file="+sub.URL)
		}
	}
	return args
}

func vlcArgs(src media.SourceRecord, subs []media.SubtitleRecord, title string) []string {
	args := []string{
		src.URL,
		"--meta-title", title,
		"--play-and-exit",
	}
	// VLC takes a single external subtitle file.
	for _, sub := range subs {
		if sub.URL != "" {
			args = append(args, "--sub-file", sub.URL)
			break
		}
	}
	return args
}
