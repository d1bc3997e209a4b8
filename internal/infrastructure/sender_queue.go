package infrastructure

import "sync"

// SenderQueue runs background tasks in submission order per sender, with no
// ordering across senders. A lane drains in its own goroutine and is
// removed once empty, so idle senders cost nothing.
type SenderQueue struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	tasks   []func()
	running bool
}

func NewSenderQueue() *SenderQueue {
	return &SenderQueue{
		lanes: make(map[string]*lane),
	}
}

// Submit enqueues a task for the given sender. Tasks for the same sender
// never overlap; tasks for different senders run concurrently.
func (q *SenderQueue) Submit(senderID string, task func()) {
	q.mu.Lock()
	l, ok := q.lanes[senderID]
	if !ok {
		l = &lane{}
		q.lanes[senderID] = l
	}

	l.tasks = append(l.tasks, task)
	if !l.running {
		l.running = true
		go q.drain(senderID, l)
	}
	q.mu.Unlock()
}

func (q *SenderQueue) drain(senderID string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.tasks) == 0 {
			l.running = false
			delete(q.lanes, senderID)
			q.mu.Unlock()

			return
		}

		task := l.tasks[0]
		l.tasks = l.tasks[1:]
		q.mu.Unlock()

		task()
	}
}
