package mtproto

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/gotd/td/tg"
	filterDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/filter/domain"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/samber/oops"
)

type userEntry struct {
	name string
	bot  bool
}

type channelEntry struct {
	title      string
	accessHash int64
	broadcast  bool
}

// peerCache remembers the entities the server has shown us, so most lookups
// need no extra round trip.
type peerCache struct {
	mu       sync.RWMutex
	users    map[int64]userEntry
	chats    map[int64]string
	channels map[int64]channelEntry
	// legacy maps a supergroup to the basic group it was upgraded from.
	legacy map[int64]int64
}

func newPeerCache() *peerCache {
	return &peerCache{
		users:    make(map[int64]userEntry),
		chats:    make(map[int64]string),
		channels: make(map[int64]channelEntry),
		legacy:   make(map[int64]int64),
	}
}

func (p *peerCache) rememberEntities(e tg.Entities) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, u := range e.Users {
		p.users[id] = userEntry{name: displayName(u), bot: u.Bot}
	}
	for _, chat := range e.Chats {
		p.putChat(chat)
	}
	for _, channel := range e.Channels {
		p.putChannel(channel)
	}
}

func (p *peerCache) rememberChats(chats []tg.ChatClass) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, chat := range chats {
		switch c := chat.(type) {
		case *tg.Chat:
			p.putChat(c)
		case *tg.Channel:
			p.putChannel(c)
		}
	}
}

func (p *peerCache) rememberMigration(channelID, chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.legacy[channelID] = chatID
}

func (p *peerCache) putChat(c *tg.Chat) {
	p.chats[c.ID] = c.Title
	if channel, ok := c.MigratedTo.(*tg.InputChannel); ok {
		p.legacy[channel.ChannelID] = c.ID
	}
}

func (p *peerCache) putChannel(c *tg.Channel) {
	entry := channelEntry{title: c.Title, broadcast: c.Broadcast}
	// Min constructors carry an access hash that is not valid for API calls.
	if prev, ok := p.channels[c.ID]; ok && c.Min {
		entry.accessHash = prev.accessHash
	} else if !c.Min {
		entry.accessHash = c.AccessHash
	}
	p.channels[c.ID] = entry
}

func (p *peerCache) lookup(peer filterDomain.Peer) (filterDomain.ChatInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch {
	case peer.ChannelID != 0:
		c, ok := p.channels[peer.ChannelID]
		return filterDomain.ChatInfo{ID: peer.RawID(), Title: c.title, Broadcast: c.broadcast}, ok
	case peer.ChatID != 0:
		title, ok := p.chats[peer.ChatID]
		return filterDomain.ChatInfo{ID: peer.RawID(), Title: title}, ok
	case peer.UserID != 0:
		u, ok := p.users[peer.UserID]
		return filterDomain.ChatInfo{ID: peer.RawID(), Title: u.name, Private: true}, ok
	default:
		return filterDomain.ChatInfo{}, false
	}
}

func (p *peerCache) user(id int64) (userEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.users[id]
	return u, ok
}

func (p *peerCache) channel(id int64) (channelEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.channels[id]
	return c, ok
}

func (p *peerCache) legacyOf(channelID int64) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.legacy[channelID]
}

func (p *peerCache) size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chats) + len(p.channels)
}

// Resolve returns chat metadata for peer, asking the server when the cache
// has never seen it.
func (c *Client) Resolve(ctx context.Context, peer filterDomain.Peer) (*filterDomain.ChatInfo, error) {
	if info, ok := c.peers.lookup(peer); ok {
		return &info, nil
	}

	errorBuilder := oops.In("mtproto").With("peer", peer.RawID())

	var (
		res tg.MessagesChatsClass
		err error
	)
	switch {
	case peer.ChannelID != 0:
		entry, ok := c.peers.channel(peer.ChannelID)
		if !ok || entry.accessHash == 0 {
			return nil, errorBuilder.Wrap(errors.ErrChatUnresolved)
		}
		res, err = c.api().ChannelsGetChannels(ctx, []tg.InputChannelClass{
			&tg.InputChannel{ChannelID: peer.ChannelID, AccessHash: entry.accessHash},
		})
	case peer.ChatID != 0:
		res, err = c.api().MessagesGetChats(ctx, []int64{peer.ChatID})
	default:
		return nil, errorBuilder.Wrap(errors.ErrChatUnresolved)
	}
	if err != nil {
		return nil, errorBuilder.Wrapf(classify(err), "failed to fetch chat")
	}

	c.peers.rememberChats(chatsOf(res))
	if info, ok := c.peers.lookup(peer); ok {
		return &info, nil
	}
	return nil, errorBuilder.Wrap(errors.ErrChatUnresolved)
}

func chatsOf(res tg.MessagesChatsClass) []tg.ChatClass {
	switch r := res.(type) {
	case *tg.MessagesChats:
		return r.Chats
	case *tg.MessagesChatsSlice:
		return r.Chats
	default:
		return nil
	}
}

func peerOf(p tg.PeerClass) filterDomain.Peer {
	switch v := p.(type) {
	case *tg.PeerUser:
		return filterDomain.Peer{UserID: v.UserID}
	case *tg.PeerChat:
		return filterDomain.Peer{ChatID: v.ChatID}
	case *tg.PeerChannel:
		return filterDomain.Peer{ChannelID: v.ChannelID}
	default:
		return filterDomain.Peer{}
	}
}

func displayName(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return "@" + u.Username
	default:
		return strconv.FormatInt(u.ID, 10)
	}
}
