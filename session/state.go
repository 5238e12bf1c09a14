package session

import (
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// State 会话生命周期
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	AppAuthorized
	AccountAuthorized
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case AppAuthorized:
		return "APP_AUTHORIZED"
	case AccountAuthorized:
		return "ACCOUNT_AUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// 声明的状态迁移, 任意状态都可以回到 Disconnected
var edges = map[State]State{
	Disconnected:      Connecting,
	Connecting:        Connected,
	Connected:         AppAuthorized,
	AppAuthorized:     AccountAuthorized,
	AccountAuthorized: AccountAuthorized, // 刷新凭证后重新授权账户
}

func CanTransition(from, to State) bool {
	if to == Disconnected {
		return true
	}
	next, ok := edges[from]
	return ok && next == to
}

// Status 对外可见的会话状态
type Status struct {
	State State
	// Err 最近一次认证或刷新失败, 账户重新授权后清除
	Err        error
	Refreshing bool
}

type machine struct {
	mux      sync.RWMutex
	state    State
	err      error
	logger   *log.Helper
	onChange func(from, to State)
}

func newMachine(logger *log.Helper, onChange func(from, to State)) *machine {
	return &machine{
		state:    Disconnected,
		logger:   logger,
		onChange: onChange,
	}
}

// transition 非法迁移只记录日志
func (m *machine) transition(to State) bool {
	m.mux.Lock()
	from := m.state
	if !CanTransition(from, to) {
		m.mux.Unlock()
		m.logger.Warnf("session ignore transition %s -> %s", from, to)
		return false
	}
	m.state = to
	if to == AccountAuthorized {
		m.err = nil
	}
	m.mux.Unlock()

	if from != to {
		m.logger.Infof("session %s -> %s", from, to)
	}
	if m.onChange != nil {
		m.onChange(from, to)
	}
	return true
}

func (m *machine) current() State {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.state
}

func (m *machine) flag(err error) {
	m.mux.Lock()
	m.err = err
	m.mux.Unlock()
	m.logger.Errorf("session error: %v", err)
}

func (m *machine) lastErr() error {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.err
}
