package commands

import (
	"fmt"
	"io"
	"net/netip"
	"rossip/swarm/protocol"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Console prints chat lines. Safe for concurrent use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	stamp *color.Color
	name  *color.Color
}

func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		now:   time.Now,
		stamp: color.New(color.FgHiBlack),
		name:  color.New(color.FgCyan, color.Bold),
	}
}

func (c *Console) Chat(from netip.AddrPort, msg *protocol.Chat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s: %s\n",
		c.stamp.Sprint(c.now().Format("15:04:05")),
		c.name.Sprint(msg.SenderName),
		msg.Text)
}
