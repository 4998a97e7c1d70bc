// Package gateway owns the persistent connection to the listings feed:
// subscribe, decode inbound frames, hand events to the pipeline, reconnect
// forever on transport errors.
package gateway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"market-alerts-go/market"
	"market-alerts-go/metrics"
)

// Handler 接收每一帧解码后的市场事件。
type Handler interface {
	HandleEvent(ctx context.Context, ev market.Event)
}

// State 连接状态机：Disconnected → Connecting → Subscribed → Streaming。
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	default:
		return "disconnected"
	}
}

// FeedClient 管理 listings 订阅的 WebSocket 连接，含自动重连。
// 没有终止状态：除进程退出外，任何传输错误都只会触发重连。
type FeedClient struct {
	URL     string
	Channel string
	Dialer  *websocket.Dialer

	backoff Backoff
	handler Handler
	log     *zap.Logger
	m       *metrics.Metrics
	state   atomic.Int32
}

// NewFeedClient wires a client for url/channel. backoff may be nil, in which
// case reconnects happen immediately.
func NewFeedClient(url, channel string, handshakeTimeout time.Duration, backoff Backoff, h Handler, log *zap.Logger, m *metrics.Metrics) *FeedClient {
	if backoff == nil {
		backoff = NoBackoff{}
	}
	return &FeedClient{
		URL:     url,
		Channel: channel,
		Dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		backoff: backoff,
		handler: h,
		log:     log,
		m:       m,
	}
}

// State returns the current connection state.
func (c *FeedClient) State() State {
	return State(c.state.Load())
}

func (c *FeedClient) setState(s State) {
	c.state.Store(int32(s))
}

// Run 连接并持续读取，直到 ctx 取消。断线自动重连并重新订阅。
func (c *FeedClient) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return ctx.Err()
		}

		c.setState(StateConnecting)
		conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			c.transportError("dial failed", err)
			attempt++
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		c.setState(StateSubscribed)
		if err := c.subscribe(conn); err != nil {
			_ = conn.Close()
			c.transportError("subscribe failed", err)
			attempt++
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		c.setState(StateStreaming)
		c.m.WSConnected.Set(1)
		c.log.Info("feed connected",
			zap.String("url", c.URL),
			zap.String("channel", c.Channel))
		attempt = 0

		c.readLoop(ctx, conn)

		c.m.WSConnected.Set(0)
		c.setState(StateDisconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.m.WSReconnects.Inc()
		c.log.Warn("feed disconnected, reconnecting")
		attempt++
		if err := c.wait(ctx, attempt); err != nil {
			return err
		}
	}
}

// subscribe sends the one-shot subscription control message.
func (c *FeedClient) subscribe(conn *websocket.Conn) error {
	msg, err := EncodeSubscribe(c.Channel)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, msg)
}

// readLoop 读取帧并分发；单帧解码失败只记录并继续，不触发重连。
func (c *FeedClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.transportError("read failed", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		ev, err := DecodeEvent(raw)
		if err != nil {
			c.m.DecodeErrors.Inc()
			c.m.FramesDropped.Inc()
			c.log.Warn("dropped undecodable frame", zap.Error(err))
			continue
		}
		c.m.FramesReceived.Inc()
		c.handler.HandleEvent(ctx, ev)
	}
}

func (c *FeedClient) transportError(msg string, err error) {
	c.m.TransportErrors.Inc()
	c.log.Warn(msg, zap.Error(err))
}

func (c *FeedClient) wait(ctx context.Context, attempt int) error {
	d := c.backoff.Next(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
