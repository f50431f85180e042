package xfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
)

// 默认配置。
const (
	// defaultAttempts 默认总尝试次数（含首次）。
	defaultAttempts = 3

	// defaultRetryDelay 默认首次重试延迟（指数退避基数）。
	defaultRetryDelay = 200 * time.Millisecond

	// defaultMaxRetryDelay 默认重试延迟上限。
	defaultMaxRetryDelay = 2 * time.Second

	// defaultRequestTimeout 默认单次请求超时。
	defaultRequestTimeout = 10 * time.Second

	// defaultBreakerThreshold 默认连续失败多少次后熔断。
	defaultBreakerThreshold = 5

	// defaultBreakerCooldown 默认熔断后多久进入半开。
	defaultBreakerCooldown = 30 * time.Second

	// maxErrorBodyBytes 诊断用应答体截断长度。
	maxErrorBodyBytes = 512
)

// Client 只读 API 客户端。
// 封装 GET 请求的重试（指数退避）与熔断，产出可直接塞给
// 缓存读穿透的加载器（见 JSONLoader）。必须通过 [New] 创建。
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	log       *slog.Logger

	attempts      uint
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	breaker *gobreaker.CircuitBreaker[[]byte]
}

// Option 定义客户端可选配置函数类型。
type Option func(*options)

type options struct {
	httpClient       *http.Client
	timeout          time.Duration
	userAgent        string
	log              *slog.Logger
	attempts         uint
	retryDelay       time.Duration
	maxRetryDelay    time.Duration
	breakerThreshold uint32
	breakerCooldown  time.Duration
}

// WithHTTPClient 替换底层 http.Client（连接池、代理、TLS 等）。
// 传入 nil 会被静默忽略。
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithTimeout 设置单次请求超时。仅在未用 WithHTTPClient 替换客户端时生效。
// d <= 0 时静默忽略。
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent 设置 User-Agent 头。空串静默忽略。
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithLogger 设置结构化日志。默认使用 slog.Default()。
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithAttempts 设置总尝试次数（含首次）。n == 0 时静默忽略。
func WithAttempts(n uint) Option {
	return func(o *options) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithRetryDelay 设置重试的初始延迟与延迟上限（指数退避）。
// 非正值静默忽略。
func WithRetryDelay(initial, max time.Duration) Option {
	return func(o *options) {
		if initial > 0 {
			o.retryDelay = initial
		}
		if max > 0 {
			o.maxRetryDelay = max
		}
	}
}

// WithBreakerThreshold 设置连续失败多少次后熔断。n == 0 时静默忽略。
func WithBreakerThreshold(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.breakerThreshold = n
		}
	}
}

// WithBreakerCooldown 设置熔断后进入半开的等待时间。d <= 0 时静默忽略。
func WithBreakerCooldown(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.breakerCooldown = d
		}
	}
}

// New 创建只读 API 客户端。baseURL 必须是 http/https 地址，
// 末尾的 / 会被去掉。
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	o := &options{
		timeout:          defaultRequestTimeout,
		userAgent:        "xpedition-fetch/1.0",
		log:              slog.Default(),
		attempts:         defaultAttempts,
		retryDelay:       defaultRetryDelay,
		maxRetryDelay:    defaultMaxRetryDelay,
		breakerThreshold: defaultBreakerThreshold,
		breakerCooldown:  defaultBreakerCooldown,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	threshold := o.breakerThreshold
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          o.httpClient,
		userAgent:     o.userAgent,
		log:           o.log,
		attempts:      o.attempts,
		retryDelay:    o.retryDelay,
		maxRetryDelay: o.maxRetryDelay,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "xfetch",
		MaxRequests: 1,
		Timeout:     o.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx 是调用方问题，不代表服务端不健康，不计入熔断
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && !se.ServerFault()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.log.Warn("熔断器状态变化",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c, nil
}

// Get 发起一次 GET 请求并返回应答体。
// 网络错误与 5xx 按指数退避重试；4xx 与熔断拒绝立即返回。
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")

	return retry.NewWithData[[]byte](
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(c.maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryableError),
		retry.OnRetry(func(attempt uint, err error) {
			c.log.Debug("请求重试",
				slog.String("url", fullURL),
				slog.Uint64("attempt", uint64(attempt)),
				slog.Any("error", err))
		}),
	).Do(func() ([]byte, error) {
		return c.breaker.Execute(func() ([]byte, error) {
			return c.doGet(ctx, fullURL)
		})
	})
}

// retryableError 判断错误是否值得重试：
// 5xx 与网络错误重试；4xx、熔断拒绝不重试。
func retryableError(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.ServerFault()
	}
	return true
}

func (c *Client) doGet(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("xfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xfetch: GET %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{Code: resp.StatusCode, URL: fullURL, Body: string(snippet)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("xfetch: read response body: %w", err)
	}
	return body, nil
}

// GetJSON 发起 GET 请求并把应答体解码到 target。
func (c *Client) GetJSON(ctx context.Context, path string, target any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("xfetch: decode %s: %w", path, err)
	}
	return nil
}

// BreakerState 返回熔断器当前状态，诊断用。
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}
