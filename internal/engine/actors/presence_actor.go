package actors

import (
	"slices"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/jonboulle/clockwork"

	"nest-hub/internal/utils"
)

// Message types for presence tracking
type (
	ConnectMsg struct {
		ConnID   string
		UserID   string
		Username string
	}

	DisconnectMsg struct {
		ConnID string
	}

	// SetUsernameMsg records the display name a connection last chatted under.
	SetUsernameMsg struct {
		ConnID   string
		Username string
	}

	GetOnlineMsg struct{}
)

// OnlineUser is one live chat connection.
type OnlineUser struct {
	ConnID      string    `json:"connectionId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// PresenceActor owns the registry of live chat connections. All access goes
// through its mailbox, so the map needs no lock.
type PresenceActor struct {
	connections map[string]OnlineUser
	clock       clockwork.Clock
	metrics     *utils.MetricsCollector
}

func NewPresenceActor(clock clockwork.Clock, metrics *utils.MetricsCollector) actor.Actor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PresenceActor{
		connections: make(map[string]OnlineUser),
		clock:       clock,
		metrics:     metrics,
	}
}

func (a *PresenceActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *ConnectMsg:
		if _, exists := a.connections[msg.ConnID]; !exists && a.metrics != nil {
			a.metrics.ChatClientConnected()
		}
		a.connections[msg.ConnID] = OnlineUser{
			ConnID:      msg.ConnID,
			UserID:      msg.UserID,
			Username:    msg.Username,
			ConnectedAt: a.clock.Now().UTC(),
		}

	case *DisconnectMsg:
		if _, exists := a.connections[msg.ConnID]; exists {
			delete(a.connections, msg.ConnID)
			if a.metrics != nil {
				a.metrics.ChatClientDisconnected()
			}
		}

	case *SetUsernameMsg:
		if conn, exists := a.connections[msg.ConnID]; exists && msg.Username != "" {
			conn.Username = msg.Username
			a.connections[msg.ConnID] = conn
		}

	case *GetOnlineMsg:
		online := make([]OnlineUser, 0, len(a.connections))
		for _, conn := range a.connections {
			online = append(online, conn)
		}
		slices.SortFunc(online, func(x, y OnlineUser) int {
			if c := x.ConnectedAt.Compare(y.ConnectedAt); c != 0 {
				return c
			}
			return strings.Compare(x.ConnID, y.ConnID)
		})
		context.Respond(online)
	}
}

// Presence is a handle on a spawned PresenceActor for code outside the actor system.
type Presence struct {
	root    *actor.RootContext
	pid     *actor.PID
	timeout time.Duration
}

func NewPresence(system *actor.ActorSystem, clock clockwork.Clock, metrics *utils.MetricsCollector) *Presence {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPresenceActor(clock, metrics)
	})
	return &Presence{
		root:    system.Root,
		pid:     system.Root.Spawn(props),
		timeout: 5 * time.Second,
	}
}

func (p *Presence) Connect(connID, userID, username string) {
	p.root.Send(p.pid, &ConnectMsg{ConnID: connID, UserID: userID, Username: username})
}

func (p *Presence) Disconnect(connID string) {
	p.root.Send(p.pid, &DisconnectMsg{ConnID: connID})
}

func (p *Presence) SetUsername(connID, username string) {
	p.root.Send(p.pid, &SetUsernameMsg{ConnID: connID, Username: username})
}

// Online lists live connections, oldest first.
func (p *Presence) Online() ([]OnlineUser, error) {
	result, err := p.root.RequestFuture(p.pid, &GetOnlineMsg{}, p.timeout).Result()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUnavailable, "presence registry did not respond", err)
	}
	return result.([]OnlineUser), nil
}

func (p *Presence) Stop() {
	p.root.Stop(p.pid)
}
