package core

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/storage"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	if w.wrap != nil {
		return w.wrap(ctx)
	}
	return w.Command.Run(ctx)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly silently drops command invocations outside a guild.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashInteractionContext); ok && v.Event.GuildID == "" {
					RespondEphemeral(v.Session, v.Event, "This one only works on a server.")
					return nil
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithAdminOnly rejects commands marked RequireAdmin for members without
// the Administrator permission.
func WithAdminOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				v, ok := ctx.(*SlashInteractionContext)
				if !ok || !cmd.RequireAdmin() {
					return cmd.Run(ctx)
				}
				member := v.Event.Member
				if member == nil || member.Permissions&discordgo.PermissionAdministrator == 0 {
					RespondEphemeral(v.Session, v.Event, "You are not the boss of me.")
					return nil
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithCommandLogger records each invocation into the guild command history.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				err := cmd.Run(ctx)
				if v, ok := ctx.(*SlashInteractionContext); ok && v.Storage != nil {
					user := resolveUser(v.Event)
					if user != nil {
						rec := storage.CommandHistoryRecord{
							ChannelID: v.Event.ChannelID,
							UserID:    user.ID,
							Username:  user.Username,
							Command:   cmd.Name(),
							Datetime:  time.Now(),
						}
						if e := v.Storage.AppendCommandToHistory(v.Event.GuildID, rec); e != nil {
							log.Printf("[WARN] Failed to log command /%s: %v", cmd.Name(), e)
						}
					}
				}
				return err
			},
		}
	}
}

func resolveUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil {
		return e.Member.User
	}
	return e.User
}
