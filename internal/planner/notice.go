package planner

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Kind is the severity of a notice.
type Kind int

const (
	Info Kind = iota
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is a short message for the user: a validation problem, a failed
// save, data that could not be read.
type Notice struct {
	Kind  Kind
	Title string
	Body  string
}

const noticeBuffer = 32

// notifier delivers notices in order on its own goroutine, so callers
// holding locks never wait on the receiver.
type notifier struct {
	mu     sync.Mutex
	closed bool
	ch     chan Notice
	done   chan struct{}
	log    *logrus.Entry
}

func newNotifier(fn func(Notice), log *logrus.Entry) *notifier {
	n := &notifier{
		ch:   make(chan Notice, noticeBuffer),
		done: make(chan struct{}),
		log:  log,
	}
	go func() {
		defer close(n.done)
		for notice := range n.ch {
			if fn != nil {
				fn(notice)
			}
		}
	}()
	return n
}

func (n *notifier) send(notice Notice) {
	n.log.WithFields(logrus.Fields{
		"kind":  notice.Kind.String(),
		"title": notice.Title,
	}).Info(notice.Body)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- notice:
	default:
		n.log.WithField("title", notice.Title).Warn("notice dropped, receiver is behind")
	}
}

// close stops delivery once queued notices have been handed over.
func (n *notifier) close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.ch)
	}
	n.mu.Unlock()
	<-n.done
}
