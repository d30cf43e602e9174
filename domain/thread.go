// Package domain contains core concepts of the messaging system.
// This file defines the Thread aggregate, recomputed per request and
// never persisted.
package domain

// Thread is the per-viewer summary of one conversation: the most recent
// message exchanged with a peer plus the number of messages from that peer
// still awaiting a read.
type Thread struct {
	Peer        UserID
	LastMessage Message
	UnreadCount int
}

// BuildThreads groups a newest-first scan of the viewer's messages by peer.
// The first message seen for a peer is that thread's last message, so the
// resulting slice is already ordered newest conversation first. Unread
// counting walks the whole scan even for threads beyond the cap, then the
// output is cut to limit groups.
func BuildThreads(viewer UserID, newestFirst []Message, limit int) []Thread {
	index := make(map[UserID]int)
	var threads []Thread
	for _, m := range newestFirst {
		peer := m.Peer(viewer)
		i, seen := index[peer]
		if !seen {
			i = len(threads)
			index[peer] = i
			threads = append(threads, Thread{Peer: peer, LastMessage: m})
		}
		if m.UnreadBy(viewer) {
			threads[i].UnreadCount++
		}
	}
	if limit > 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	return threads
}
