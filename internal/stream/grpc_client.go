package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GRPCClient streams frames to the backend over two client-streaming
// methods. The connection is dialed lazily and a failed send reopens the
// stream once before giving up.
type GRPCClient struct {
	mu sync.Mutex

	logger       *slog.Logger
	addr         string
	tlsConfig    *tls.Config
	token        string
	sampleMethod string
	tableMethod  string
	conn         *grpc.ClientConn
	sampleStream grpc.ClientStream
	tableStream  grpc.ClientStream
	dialTimeout  time.Duration
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, sampleMethod, tableMethod string, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:       logger,
		addr:         addr,
		tlsConfig:    tlsCfg,
		token:        token,
		sampleMethod: sampleMethod,
		tableMethod:  tableMethod,
		dialTimeout:  8 * time.Second,
	}
}

func (c *GRPCClient) SendSamples(ctx Context, frames []SampleFrame) error {
	if len(frames) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}
	if c.sampleStream == nil {
		if err := c.openSampleStreamLocked(ctx); err != nil {
			return err
		}
	}
	for i, frame := range frames {
		if err := c.sampleStream.SendMsg(frame); err != nil {
			c.logger.Warn("grpc sample send failed, reopening stream", "error", err)
			c.sampleStream = nil
			if err2 := c.openSampleStreamLocked(ctx); err2 != nil {
				return fmt.Errorf("reopen sample stream: %w", err2)
			}
			if err2 := c.sampleStream.SendMsg(frame); err2 != nil {
				return fmt.Errorf("send sample frame %d: %w", i, err2)
			}
		}
	}
	return nil
}

func (c *GRPCClient) SendProcessTable(ctx Context, frame ProcessTableFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}
	if c.tableStream == nil {
		if err := c.openTableStreamLocked(ctx); err != nil {
			return err
		}
	}
	if err := c.tableStream.SendMsg(frame); err != nil {
		c.logger.Warn("grpc process table send failed, reopening stream", "error", err)
		c.tableStream = nil
		if err2 := c.openTableStreamLocked(ctx); err2 != nil {
			return fmt.Errorf("reopen table stream: %w", err2)
		}
		if err2 := c.tableStream.SendMsg(frame); err2 != nil {
			return fmt.Errorf("send table frame: %w", err2)
		}
	}
	return nil
}

func (c *GRPCClient) Close(ctx Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampleStream != nil {
		_ = c.sampleStream.CloseSend()
		c.sampleStream = nil
	}
	if c.tableStream != nil {
		_ = c.tableStream.CloseSend()
		c.tableStream = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	_ = ctx
	return nil
}

func (c *GRPCClient) ensureConnLocked(ctx Context) error {
	if c.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		dialCtx, cancel = context.WithDeadline(context.Background(), dl)
		defer cancel()
	}

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(
		dialCtx,
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc stream connected", "addr", c.addr)
	return nil
}

func (c *GRPCClient) openSampleStreamLocked(ctx Context) error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	streamCtx := c.decorateContext(ctx)
	s, err := c.conn.NewStream(streamCtx, &grpc.StreamDesc{ClientStreams: true}, c.sampleMethod)
	if err != nil {
		return fmt.Errorf("open sample stream: %w", err)
	}
	c.sampleStream = s
	return nil
}

func (c *GRPCClient) openTableStreamLocked(ctx Context) error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	streamCtx := c.decorateContext(ctx)
	s, err := c.conn.NewStream(streamCtx, &grpc.StreamDesc{ClientStreams: true}, c.tableMethod)
	if err != nil {
		return fmt.Errorf("open table stream: %w", err)
	}
	c.tableStream = s
	return nil
}

func (c *GRPCClient) decorateContext(ctx Context) context.Context {
	out := context.Background()
	if dl, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		out, cancel = context.WithDeadline(out, dl)
		_ = cancel
	}
	if c.token != "" {
		out = metadata.AppendToOutgoingContext(out, "authorization", "Bearer "+c.token)
	}
	return out
}
