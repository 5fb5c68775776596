package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mcoot/playermanager/internal/model"
)

// printCommand wraps a message in a console command that prints it to chat
func printCommand(msg string) string {
	return "/silent-command game.print(" + strconv.Quote("[playermanager] "+msg) + ")"
}

func (d *Dispatcher) reply(ctx context.Context, instanceID, msg string) error {
	results := d.RunOnInstance(ctx, instanceID, printCommand(msg))
	if len(results) == 0 {
		return fmt.Errorf("no channel for instance %s", instanceID)
	}
	var errs []error
	for _, r := range results {
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}

// playtime [name] reports a player's total online time
func (d *Dispatcher) playtime(ctx context.Context, call Call) error {
	name := call.Speaker
	if len(call.Args) > 0 {
		name = call.Args[0]
	}
	if name == "" {
		return d.reply(ctx, call.InstanceID, "usage: playtime <player>")
	}

	p, err := d.players.Get(name)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return d.reply(ctx, call.InstanceID, fmt.Sprintf("unknown player %s", name))
	}
	if err != nil {
		return err
	}

	total := p.OnlineTimeTotal + model.ParseSeconds(p.Get(model.FieldOnlineTime))
	return d.reply(ctx, call.InstanceID, fmt.Sprintf("%s has played for %s", name, formatDuration(total)))
}

// online reports how many players are connected on the caller's instance
func (d *Dispatcher) online(ctx context.Context, call Call) error {
	n := d.players.ConnectedOn(call.InstanceID)
	return d.reply(ctx, call.InstanceID, fmt.Sprintf("%d player(s) online", n))
}

func formatDuration(seconds float64) string {
	return (time.Duration(seconds) * time.Second).Round(time.Second).String()
}
