package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"

	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/endpoint"
	"serialbridge/internal/transport"
)

// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
// 交互式测试客户端
//
// 连接到设备侧的 TCP 服务，发送问候语，然后一问一答：
// 收到一块数据就打印，再提示输入一行发送。
// ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

const (
	clientPrompt    = "send> "
	clientChunkSize = 1024
	lineEnding      = "\r\n"
)

// LineReader 逐行读取用户输入
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// ClientOptions 测试客户端参数
type ClientOptions struct {
	Protocol    string
	Host        string
	Port        int
	Greeting    string
	DialTimeout time.Duration

	// Input 为空时：stdin 是终端用 readline，否则按行读取 stdin
	Input  LineReader
	Output *Output
	Logger corelog.Logger
}

// TestClient 交互式测试客户端
type TestClient struct {
	opts   ClientOptions
	out    *Output
	logger corelog.Logger
}

// NewTestClient 创建测试客户端
func NewTestClient(opts ClientOptions) *TestClient {
	if opts.Protocol == "" {
		opts.Protocol = transport.ProtocolTCP
	}
	if opts.Output == nil {
		opts.Output = NewOutput(os.Stdout, false)
	}
	if opts.Logger == nil {
		opts.Logger = corelog.Default()
	}
	return &TestClient{
		opts:   opts,
		out:    opts.Output,
		logger: opts.Logger.WithField("component", "client"),
	}
}

// Address 目标地址 host:port
func (c *TestClient) Address() string {
	return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
}

// Run 连接并进入收发循环，直到对端关闭、用户退出或 ctx 取消
func (c *TestClient) Run(ctx context.Context) error {
	addr := c.Address()
	conn, err := transport.Dial(ctx, c.opts.Protocol, addr, c.opts.DialTimeout)
	if err != nil {
		if isConnectionRefused(err) {
			c.out.Error("Connection refused. Is the bridge running and is the simulator listening on %s?", addr)
		} else {
			c.out.Error("Failed to connect to %s: %v", addr, err)
		}
		return coreerrors.NewConnectionError(addr, err)
	}
	defer conn.Close()

	// 取消时关闭连接，解除阻塞的读
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.out.Success("Connected to %s", addr)

	if c.opts.Greeting != "" {
		if err := endpoint.WriteFull(conn, []byte(c.opts.Greeting)); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeNetworkError, "send greeting")
		}
	}

	input := c.opts.Input
	if input == nil {
		input, err = newStdinReader()
		if err != nil {
			return err
		}
	}
	defer input.Close()

	return c.loop(ctx, conn, input)
}

func (c *TestClient) loop(ctx context.Context, conn net.Conn, input LineReader) error {
	buf := make([]byte, clientChunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c.out.Plain("RX: %s", strings.ToValidUTF8(string(buf[:n]), "�"))
		}
		if err != nil {
			if ctx.Err() != nil {
				c.out.Plain("")
				c.out.Info("Interrupted by user")
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNRESET) {
				c.out.Info("Connection closed by peer")
				return nil
			}
			return coreerrors.Wrap(err, coreerrors.CodeNetworkError, "receive")
		}
		if n == 0 {
			continue
		}

		line, err := input.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				c.out.Plain("")
				c.out.Info("Interrupted by user")
			}
			// EOF：输入结束，正常退出
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "quit", "exit":
			return nil
		}

		if err := endpoint.WriteFull(conn, []byte(line+lineEnding)); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeNetworkError, "send")
		}
		c.logger.Debugf("Sent %d bytes", len(line)+len(lineEnding))
	}
}

func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// newStdinReader 终端用 readline，管道输入逐行读取
func newStdinReader() (LineReader, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          clientPrompt,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize readline: %w", err)
		}
		return rl, nil
	}
	return NewScannerReader(os.Stdin, os.Stdout, clientPrompt), nil
}

// ScannerReader 非终端输入的 LineReader
type ScannerReader struct {
	scanner *bufio.Scanner
	prompt  io.Writer
	text    string
}

// NewScannerReader 从 r 逐行读取，每次读取前把提示写到 prompt（可为空）
func NewScannerReader(r io.Reader, prompt io.Writer, text string) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r), prompt: prompt, text: text}
}

// Readline 读取一行，不含换行符
func (s *ScannerReader) Readline() (string, error) {
	if s.prompt != nil {
		fmt.Fprint(s.prompt, s.text)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.scanner.Text(), "\r"), nil
}

// Close 无需释放
func (s *ScannerReader) Close() error {
	return nil
}
