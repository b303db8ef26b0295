// Package controller 进程级的会话控制
//
// 控制器并发建立网络端点（A）与串口端点（B），构造唯一的桥接会话并运行，
// 外部中断信号与会话自然结束走同一条关闭路径。
package controller

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/bridge"
	"serialbridge/internal/endpoint"
)

// DefaultSignals 触发优雅退出的信号
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// Opener 建立一个端点
type Opener func(ctx context.Context) (endpoint.Endpoint, error)

// Options 控制器参数
type Options struct {
	Network endpoint.NetworkOptions
	Serial  endpoint.SerialOptions
	Session bridge.Options

	// OpenNetwork / OpenSerial 为空时使用 DialNetwork / OpenSerial
	OpenNetwork Opener
	OpenSerial  Opener

	// Signals 需要监听的进程信号，为空则只响应 ctx
	Signals []os.Signal

	// OnSession 会话创建后、运行前回调，用于状态服务
	OnSession func(*bridge.Session)

	Logger corelog.Logger
}

// Controller 会话控制器
type Controller struct {
	opts   Options
	logger corelog.Logger

	mu      sync.Mutex
	session *bridge.Session
}

// New 创建控制器
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = corelog.Default()
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = opts.Logger
	}
	if opts.OpenNetwork == nil {
		netOpts := opts.Network
		opts.OpenNetwork = func(ctx context.Context) (endpoint.Endpoint, error) {
			return endpoint.DialNetwork(ctx, netOpts)
		}
	}
	if opts.OpenSerial == nil {
		serialOpts := opts.Serial
		opts.OpenSerial = func(ctx context.Context) (endpoint.Endpoint, error) {
			return endpoint.OpenSerial(ctx, serialOpts)
		}
	}
	return &Controller{opts: opts, logger: opts.Logger}
}

// Session 当前会话，建立端点之前为 nil
func (c *Controller) Session() *bridge.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Run 建立端点并运行一个会话
// 端点建立失败返回 ConnectionError，此时已打开的端点已被释放；
// 会话结束时返回结果，流错误同时作为 error 返回
func (c *Controller) Run(ctx context.Context) (*bridge.Result, error) {
	if len(c.opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, c.opts.Signals...)
		defer stop()
	}

	a, b, err := c.establish(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeInterrupted, "interrupted while connecting")
		}
		return nil, err
	}

	session := bridge.NewSession(a, b, c.opts.Session)
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	if c.opts.OnSession != nil {
		c.opts.OnSession(session)
	}

	result := session.Run(ctx)
	switch result.Reason {
	case bridge.ReasonStreamError:
		c.logger.WithError(result.Err()).Errorf("Controller: %s failed", result.First.Direction)
	case bridge.ReasonInterrupted:
		c.logger.Infof("Controller: interrupted, session %s stopped", result.ID)
	default:
		c.logger.Infof("Controller: %s closed by peer", result.First.Direction)
	}
	return result, result.Err()
}

// establish 并发建立两个端点；任一失败时释放另一个
func (c *Controller) establish(ctx context.Context) (endpoint.Endpoint, endpoint.Endpoint, error) {
	var a, b endpoint.Endpoint
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ep, err := c.opts.OpenNetwork(gctx)
		if err != nil {
			return coreerrors.NewConnectionError(c.networkLabel(), err)
		}
		a = ep
		return nil
	})
	g.Go(func() error {
		ep, err := c.opts.OpenSerial(gctx)
		if err != nil {
			return coreerrors.NewConnectionError(c.serialLabel(), err)
		}
		b = ep
		return nil
	})

	if err := g.Wait(); err != nil {
		c.logger.WithError(err).Errorf("Controller: failed to establish endpoints")
		for _, ep := range []endpoint.Endpoint{a, b} {
			if ep == nil {
				continue
			}
			if cerr := ep.Close(); cerr != nil {
				c.logger.WithError(cerr).Warnf("Controller: release %s failed", ep.Label())
			}
		}
		return nil, nil, err
	}

	c.logger.Infof("Controller: endpoints ready (%s, %s)", a.Label(), b.Label())
	return a, b, nil
}

func (c *Controller) networkLabel() string {
	p := c.opts.Network.Protocol
	if p == "" {
		p = "tcp"
	}
	return p + "://" + c.opts.Network.Address()
}

func (c *Controller) serialLabel() string {
	return "serial " + c.opts.Serial.Device
}
