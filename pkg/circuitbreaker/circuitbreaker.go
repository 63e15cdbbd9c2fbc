package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen 熔断器打开时直接返回
var ErrOpen = errors.New("circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 直接拒绝
	StateHalfOpen              // 放行少量探测请求
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// 连续失败多少次后打开
	FailureThreshold int
	// 半开状态下成功多少次后关闭
	SuccessThreshold int
	// 打开状态持续多久后进入半开
	Timeout time.Duration
	// 半开状态下同时放行的最大请求数
	HalfOpenMaxRequests int
	// 状态变化回调，可为 nil；在锁内调用，不能回调熔断器本身
	OnStateChange func(from, to State)
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	config Config
	now    func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	halfOpenUsed int
	openedAt     time.Time
}

// New 创建熔断器
func New(config Config) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute 在熔断保护下执行 fn；打开状态时返回 ErrOpen 且不执行 fn
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.Timeout {
		cb.setState(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if cb.halfOpenUsed >= cb.config.HalfOpenMaxRequests {
			return ErrOpen
		}
		cb.halfOpenUsed++
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.setState(StateOpen)
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		cb.halfOpenUsed--
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.successes = 0
	cb.halfOpenUsed = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// State 返回当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
