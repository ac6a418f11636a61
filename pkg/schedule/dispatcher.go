// Package schedule delivers scheduled messages: a ticker-driven dispatcher
// that loads due entries, renders the persisted message and sends it.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/storage"
)

// DefaultInterval is how often the dispatcher polls for due messages.
const DefaultInterval = time.Minute

// Sender is the slice of the Discord session the dispatcher needs.
// *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Cancel stops a running dispatcher.
type Cancel func()

// Dispatcher polls the store for due scheduled messages and delivers them.
type Dispatcher struct {
	api      Sender
	store    *storage.Store
	interval time.Duration
}

// NewDispatcher creates a dispatcher. A zero interval selects the default
// polling interval.
func NewDispatcher(api Sender, store *storage.Store, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{api: api, store: store, interval: interval}
}

// Start runs the dispatch loop in the background until the context is done
// or the returned Cancel is called.
func (d *Dispatcher) Start(ctx context.Context) Cancel {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				d.RunOnce(now)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// RunOnce processes every entry due at the given instant. One-off entries are
// removed after delivery; repeating entries are advanced past now. Entries
// whose message was deleted since scheduling are dropped.
func (d *Dispatcher) RunOnce(now time.Time) {
	due, err := d.store.DueScheduledMessages(now)
	if err != nil {
		log.Application().Error("failed to load due scheduled messages", "error", err)
		return
	}

	for _, sm := range due {
		d.deliver(sm, now)
	}
}

func (d *Dispatcher) deliver(sm storage.ScheduledMessage, now time.Time) {
	logger := log.Application().With("schedule_id", sm.ID, "guild_id", sm.GuildID, "message", sm.MessageName)

	stored, ok, err := d.store.GetMessage(sm.GuildID, sm.MessageName)
	if err != nil {
		logger.Error("failed to load scheduled message", "error", err)
		return
	}
	if !ok {
		logger.Warn("scheduled message no longer exists, dropping schedule")
		if _, err := d.store.DeleteScheduled(sm.ID, sm.GuildID); err != nil {
			logger.Error("failed to drop orphaned schedule", "error", err)
		}
		return
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(stored.Embeds))
	for _, e := range stored.Embeds {
		embeds = append(embeds, e.ToMessageEmbed())
	}
	if _, err := d.api.ChannelMessageSendComplex(sm.ChannelID, &discordgo.MessageSend{
		Content: stored.Content,
		Embeds:  embeds,
	}); err != nil {
		// Leave the entry due so the next tick retries.
		logger.Warn("failed to deliver scheduled message", "channel_id", sm.ChannelID, "error", err)
		return
	}

	if sm.RepeatEvery <= 0 {
		if _, err := d.store.DeleteScheduled(sm.ID, sm.GuildID); err != nil {
			logger.Error("failed to remove delivered one-off schedule", "error", err)
		}
		return
	}

	next := sm.NextRun
	for !next.After(now) {
		next = next.Add(sm.RepeatEvery)
	}
	if err := d.store.MarkScheduled(sm.ID, next); err != nil {
		logger.Error("failed to advance repeating schedule", "error", err)
		return
	}
	logger.Info("scheduled message delivered", "channel_id", sm.ChannelID, "next_run", next)
}
